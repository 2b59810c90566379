package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/workbench/internal/api"
	"github.com/mesh-intelligence/workbench/pkg/store"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		seed   bool
		listen string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long:  "Serve the task API until interrupted. SIGINT and SIGTERM trigger a graceful shutdown.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if seed {
				n, err := store.Seed(ctx, s)
				if err != nil {
					return fmt.Errorf("seed: %w", err)
				}
				a.logger.WithField("tasks", n).Info("sample workspace seeded")
			}

			addr := a.settings.ListenAddr
			if listen != "" {
				addr = listen
			}
			e := api.New(s, a.logger, api.Options{
				RateLimit:    a.settings.RateLimit,
				RateBurst:    a.settings.RateBurst,
				AllowOrigins: a.settings.AllowOrigins,
			})
			a.logger.WithFields(log.Fields{
				"backend":    a.settings.Backend,
				"rate_limit": a.settings.RateLimit,
			}).Info("starting server")
			if err := api.Serve(ctx, e, addr, a.logger); err != nil {
				return sysError{fmt.Errorf("serve: %w", err)}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "load the sample workspace when the store has no tasks")
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides listen_addr)")
	return cmd
}
