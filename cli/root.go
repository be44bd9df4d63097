package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand builds the notes2blog command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:   "notes2blog",
		Short: "Turn photographed handwritten notes into blog posts",
		Long: `notes2blog reads a photo of handwritten notes, transcribes it and drafts a
blog post, its metadata and a React component for it.

Settings come from the environment (OPENAI_API_KEY, UPLOAD_DIR, OUTPUT_DIR, ...)
and an optional dotenv file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := app.LoadConfig(envFile)
			if err != nil {
				return err
			}
			app.Config = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to read settings from")
	root.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "enable info logs")

	root.AddCommand(
		newServeCommand(app),
		newProcessCommand(app),
		newSubmitCommand(app),
	)
	return root
}
