package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"notes2blog/pipeline"
)

func newProcessCommand(app *App) *cobra.Command {
	var (
		asJSON bool
		strict bool
	)
	cmd := &cobra.Command{
		Use:   "process <image>",
		Short: "Run the pipeline on a local photo",
		Long: `Run the full pipeline on a photo without starting the server.
Artifacts are written to OUTPUT_DIR/article when the component validates.

Example:
  notes2blog process ./notes.jpg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.buildStack(true)
			if err != nil {
				return err
			}
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if app.Config.RequestTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, app.Config.RequestTimeout)
				defer cancel()
			}
			app.logger().Printf("[cli] processing %s (ocr: %s)", path, st.engine)
			final, err := st.orchestrator.Run(ctx, pipeline.NewState(path))
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), renderError(err))
				return NewExitError(1)
			}

			res := final.Result()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return err
				}
			} else {
				var paths []string
				if res.Validated {
					dir := filepath.Join(app.Config.OutputDir, pipeline.ArticleDir)
					paths = []string{
						filepath.Join(dir, pipeline.ArticleMarkdownFile),
						filepath.Join(dir, pipeline.ArticleComponentFile),
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderResult(res, paths))
			}
			if strict && !res.Validated {
				return NewExitError(2)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit with status 2 when the component does not validate")
	return cmd
}
