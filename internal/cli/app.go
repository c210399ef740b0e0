package cli

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/salesdesk/internal/auth"
	"github.com/mesh-intelligence/salesdesk/internal/csvstore"
	"github.com/mesh-intelligence/salesdesk/internal/dashboard"
	"github.com/mesh-intelligence/salesdesk/internal/intake"
	"github.com/mesh-intelligence/salesdesk/internal/logging"
	"github.com/mesh-intelligence/salesdesk/internal/paths"
	"github.com/mesh-intelligence/salesdesk/internal/repository"
	"github.com/mesh-intelligence/salesdesk/internal/scraping"
	"github.com/mesh-intelligence/salesdesk/pkg/types"
)

// app is the wired set of services a command works with.
type app struct {
	cfg    types.Config
	logger *slog.Logger
	store  *repository.Store
}

// openApp loads configuration and opens the store. Logs go to stderr.
func openApp(cmd *cobra.Command) (*app, error) {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	return &app{
		cfg:    cfg,
		logger: logger,
		store:  repository.Open(cfg.DataDir, csvstore.WithLogger(logger)),
	}, nil
}

func (a *app) dashboardService() *dashboard.Service {
	return dashboard.NewService(a.store.Events, a.store.Contacts, a.store.Opportunities)
}

func (a *app) intakeService() *intake.Service {
	return intake.NewService(a.store.Events, a.cfg.Intake.Cutoff, a.logger)
}

func (a *app) authenticator() *auth.Authenticator {
	return auth.New(a.cfg.Auth.Users)
}

// registry lists the scrapers automated mode can use, most specific first.
func (a *app) registry() *scraping.Registry {
	client := &http.Client{Timeout: a.cfg.Scraping.Timeout}
	listing := scraping.NewListingScraper(client,
		scraping.WithCutoff(a.cfg.Intake.Cutoff),
		scraping.WithScraperLogger(a.logger),
	)
	return scraping.NewRegistry().
		Register(scraping.HostMatch(scraping.SwissCongressHosts...), listing)
}

// scrapingService returns the job service. Commands that exit right after
// starting a job run it synchronously regardless of configuration.
func (a *app) scrapingService(allowAsync bool) *scraping.Service {
	cfg := a.cfg.Scraping
	cfg.Async = cfg.Async && allowAsync
	return scraping.NewService(a.store.ScrapingJobs, a.store.ScrapedEvents, a.registry(), cfg, a.logger)
}
