package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"notes2blog/server"
)

func newServeCommand(app *App) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API on HOST:PORT.

Endpoints:
  GET  /                  health and OCR engine
  POST /ingest            upload a photo (multipart field "file")
  POST /process           run the pipeline on {"image_path": "..."}
  GET  /article           metadata of the last published article
  GET  /article/preview   the last published article as HTML`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := app.buildStack(false)
			if err != nil {
				return err
			}
			srv, err := server.New(st.orchestrator, st.store, server.Options{
				Vision:  st.engine == "vision",
				Timeout: app.Config.RequestTimeout,
				Verbose: app.Verbose,
				Logger:  app.logger(),
			})
			if err != nil {
				return err
			}

			listen := app.Config.Addr()
			if addr != "" {
				listen = addr
			}
			httpSrv := &http.Server{
				Addr:              listen,
				Handler:           srv.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- httpSrv.ListenAndServe() }()
			app.logger().Printf("[cli] starting web server on %s (ocr: %s)", listen, st.engine)

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			app.logger().Printf("[cli] shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpSrv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides HOST and PORT)")
	return cmd
}
