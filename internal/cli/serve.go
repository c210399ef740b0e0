package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/salesdesk/internal/api"
	"github.com/mesh-intelligence/salesdesk/internal/metrics"
	"github.com/mesh-intelligence/salesdesk/pkg/types"
)

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Long: "Serve the JSON API until interrupted. Asynchronous scraping jobs still\n" +
			"running at shutdown are waited for.",
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = a.cfg.ListenAddr
			}

			m := metrics.New()
			var tables []types.Table
			for _, kind := range types.StandardTableNames {
				t, err := a.store.GetTable(kind)
				if err != nil {
					return err
				}
				tables = append(tables, t)
			}
			if err := m.WatchTables(tables...); err != nil {
				return err
			}

			scraper := a.scrapingService(true).WithObserver(m)
			defer scraper.Wait()

			srv, err := api.NewServer(api.Services{
				Store:     a.store,
				Dashboard: a.dashboardService(),
				Scraping:  scraper,
				Intake:    a.intakeService(),
				Auth:      a.authenticator(),
				Metrics:   m,
			}, a.logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			a.logger.Info("serving", "data_dir", a.cfg.DataDir, "scraping_mode", a.cfg.Scraping.Mode)
			return api.ListenAndServe(ctx, addr, srv, a.logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
