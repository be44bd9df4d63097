package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"notes2blog/pipeline"
	"notes2blog/publisher"
)

func newSubmitCommand(app *App) *cobra.Command {
	var (
		serverURL string
		saveDir   string
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "submit <image>",
		Short: "Send a photo to a running server",
		Long: `Upload a photo to a running notes2blog server and run the pipeline there.

Example:
  notes2blog submit notes.jpg --server http://localhost:8000 --save-dir ./post`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := publisher.NewClient(serverURL, nil, app.Verbose, app.logger())
			if err != nil {
				return err
			}
			res, err := client.Submit(cmd.Context(), args[0])
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), renderError(err))
				return NewExitError(1)
			}

			var paths []string
			if saveDir != "" {
				paths, err = saveResult(saveDir, res, app)
				if err != nil {
					return err
				}
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderResult(res, paths))
			return nil
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "http://localhost:8000", "base URL of the notes2blog server")
	cmd.Flags().StringVar(&saveDir, "save-dir", "", "write the returned article files to this directory")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

// saveResult writes the returned artifacts the way the server publishes them.
func saveResult(dir string, res pipeline.Result, app *App) ([]string, error) {
	store, err := publisher.New(dir, dir, app.Verbose, app.logger())
	if err != nil {
		return nil, err
	}
	meta, err := json.MarshalIndent(res.Metadata, "", "  ")
	if err != nil {
		return nil, err
	}

	files := []struct{ name, content string }{
		{pipeline.ArticleMarkdownFile, res.BlogMarkdown},
		{pipeline.ArticleComponentFile, res.ReactCode},
		{pipeline.ArticleMetadataFile, string(meta)},
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		p, err := store.SaveOutput(f.name, f.content, "")
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}
