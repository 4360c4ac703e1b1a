package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/camden-git/rostertagger/handlers"
	"github.com/camden-git/rostertagger/realtime"
	"github.com/camden-git/rostertagger/services"
	"github.com/camden-git/rostertagger/workers"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			client, err := a.visionClient(cmd.Context())
			if err != nil {
				return err
			}
			jobs := workers.NewTagJobManager(workers.NewBatchTagger(a.store, client, a.cfg.TagWorkers, a.metrics))
			defer jobs.Shutdown()
			hub := realtime.NewHub(a.cfg.CORSAllowedOrigins)
			jobs.SetNotifier(hub)

			rt := &handlers.Router{
				Import:         &handlers.ImportHandler{Importer: services.NewImporter(a.store, a.metrics), DefaultRoot: a.cfg.RootDirectory},
				Profiles:       &handlers.ProfileHandler{Store: a.store},
				Tags:           &handlers.TagHandler{Editor: services.NewTagEditor(a.store, client, a.metrics)},
				Batches:        &handlers.BatchHandler{Jobs: jobs, DefaultLimit: a.cfg.TagBatchLimit},
				Previews:       &handlers.ImagePreviewHandler{Images: a.store.Images},
				Events:         hub.ServeWS,
				Metrics:        a.metrics.Handler(),
				AllowedOrigins: a.cfg.CORSAllowedOrigins,
			}

			server := &http.Server{
				Addr:         a.cfg.ListenAddr,
				Handler:      rt.Handler(),
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 10 * time.Minute,
				IdleTimeout:  120 * time.Second,
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				hub.Run(ctx)
				return nil
			})
			g.Go(func() error {
				log.Printf("Server listening on %s (root %s, mock mode: %v)", server.Addr, a.cfg.RootDirectory, client.MockMode())
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				log.Println("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}

	cmd.Flags().String("addr", "", "listen address (env LISTEN_ADDR)")
	return cmd
}
