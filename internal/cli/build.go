package cli

import (
	"fmt"
	"io"

	"github.com/pfrederiksen/clubot/internal/agenda"
	"github.com/pfrederiksen/clubot/internal/config"
	"github.com/pfrederiksen/clubot/internal/filter"
	"github.com/pfrederiksen/clubot/internal/logger"
	"github.com/pfrederiksen/clubot/internal/metrics"
	"github.com/pfrederiksen/clubot/internal/notifier"
	"github.com/pfrederiksen/clubot/internal/poller"
	"github.com/pfrederiksen/clubot/internal/report"
	"github.com/pfrederiksen/clubot/internal/scraper"
	"github.com/pfrederiksen/clubot/internal/storage"
)

// buildBackend returns the storage backend selected by the configuration
func buildBackend(cfg *config.Config) (storage.Backend, error) {
	switch cfg.Storage.Backend {
	case "gist":
		backend, err := storage.NewGistStorage(cfg.Storage.GistID, cfg.Storage.GitHubToken, cfg.Storage.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("initializing gist storage: %w", err)
		}
		return backend, nil
	default:
		backend, err := storage.NewFileStorage(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("initializing storage: %w", err)
		}
		return backend, nil
	}
}

// buildNotifier combines the enabled notification channels. dryRunOut
// receives dry-run output.
func buildNotifier(cfg *config.Config, dryRunOut io.Writer, renderer *report.Renderer) (notifier.Notifier, error) {
	var channels notifier.Multi

	if cfg.Notify.DryRun {
		channels = append(channels, notifier.NewDryRunNotifier(dryRunOut))
	}

	if tg := cfg.Notify.Telegram; tg.BotToken != "" && tg.ChatID != "" {
		n, err := notifier.NewTelegramNotifier(tg.BotToken, tg.ChatID, cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("initializing telegram: %w", err)
		}
		channels = append(channels, n)
	}

	if cfg.Notify.Twitter {
		n, err := notifier.NewTwitterNotifier(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("initializing twitter: %w", err)
		}
		channels = append(channels, n)
	}

	if cfg.Browse {
		channels = append(channels, notifier.NewBrowserNotifier(renderer.Path))
	}

	if f := filter.New(cfg.Notify.Include, cfg.Notify.Exclude); !f.IsEmpty() {
		logger.Info("Filtering notifications", logger.Fields{"filter": f.String()})
		return notifier.NewFiltered(channels, f), nil
	}
	return channels, nil
}

// buildRetention returns the configured retention policy
func buildRetention(cfg *config.Config) agenda.RetentionPolicy {
	if cfg.Retention.ArchiveDeletedAfter > 0 {
		return agenda.ArchiveDeleted{After: cfg.Retention.ArchiveDeletedAfter}
	}
	return agenda.KeepAll{}
}

// buildPoller wires every component of a poll cycle
func buildPoller(cfg *config.Config, dryRunOut io.Writer, m *metrics.Metrics) (*poller.Poller, error) {
	backend, err := buildBackend(cfg)
	if err != nil {
		return nil, err
	}

	pageDir, err := storage.ExpandHome(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	renderer := report.NewRenderer(pageDir)

	n, err := buildNotifier(cfg, dryRunOut, renderer)
	if err != nil {
		return nil, err
	}

	builder := scraper.NewBuilder(scraper.New(cfg.BaseURL, cfg.Query, cfg.UserAgent))

	return poller.New(cfg.Activities, builder, backend, n,
		poller.WithRetention(buildRetention(cfg)),
		poller.WithRenderer(renderer),
		poller.WithMetrics(m),
	), nil
}
