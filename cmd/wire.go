package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/bnema/goalpanel/internal/adapters/cache/retained"
	"github.com/bnema/goalpanel/internal/adapters/clock/timesync"
	"github.com/bnema/goalpanel/internal/adapters/display/panel"
	"github.com/bnema/goalpanel/internal/adapters/display/record"
	"github.com/bnema/goalpanel/internal/adapters/gpio/sysfs"
	"github.com/bnema/goalpanel/internal/adapters/network/probe"
	previewadapter "github.com/bnema/goalpanel/internal/adapters/render/preview"
	"github.com/bnema/goalpanel/internal/adapters/secrets/chain"
	"github.com/bnema/goalpanel/internal/adapters/source"
	"github.com/bnema/goalpanel/internal/application"
	"github.com/bnema/goalpanel/internal/config"
	"github.com/bnema/goalpanel/internal/logging"
	"github.com/bnema/goalpanel/internal/ports"
	"github.com/bnema/goalpanel/internal/version"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type app struct {
	configPath string
	configFile string
	cfg        config.Config
	log        *logrus.Logger
	now        func() time.Time
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, used, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	var w io.Writer
	switch cfg.Log.Output {
	case "", "stderr":
		w = cmd.ErrOrStderr()
	case "stdout":
		w = cmd.OutOrStdout()
	}

	logger, err := logging.New(cfg.Log, w)
	if err != nil {
		return fmt.Errorf("wire logger: %w", err)
	}

	a.cfg = cfg
	a.configFile = used
	a.log = logger
	if a.now == nil {
		a.now = time.Now
	}
	return nil
}

// retainedStore is the cache together with the region backing it.
type retainedStore struct {
	cache  *retained.Cache
	region retained.Region
	path   string
}

func (s *retainedStore) Close() error {
	return s.region.Close()
}

// SavedAt is the modification time of the backing file, zero for memory.
func (s *retainedStore) SavedAt() time.Time {
	if s.path == "" {
		return time.Time{}
	}
	info, err := os.Stat(s.path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

func (a *app) openStore() (*retainedStore, error) {
	log := logging.WithComponent(a.log, "cache")

	var region retained.Region
	path := a.cfg.Cache.Path
	if path == "" {
		region = retained.NewMemoryRegion()
	} else {
		mapped, err := retained.OpenMappedRegion(path)
		if err != nil {
			return nil, fmt.Errorf("open retained region: %w", err)
		}
		region = mapped
	}

	cache, err := retained.NewCache(region, log)
	if err != nil {
		_ = region.Close()
		return nil, fmt.Errorf("wire retained cache: %w", err)
	}

	return &retainedStore{cache: cache, region: region, path: path}, nil
}

// openWakeStore never fails: a wake must reach sleep even when the retained
// region is unusable, so it falls back to process memory.
func (a *app) openWakeStore() *retainedStore {
	store, err := a.openStore()
	if err == nil {
		return store
	}

	logging.WithComponent(a.log, "cache").WithError(err).
		WithField("path", a.cfg.Cache.Path).
		Warn("retained region unavailable, caching in memory for this wake")

	region := retained.NewMemoryRegion()
	cache, _ := retained.NewCache(region, logging.WithComponent(a.log, "cache"))
	return &retainedStore{cache: cache, region: region}
}

func (a *app) clock(cfg config.Config) *timesync.Clock {
	return timesync.New(timesync.Options{
		Servers:      cfg.Time.NTPServers,
		QueryTimeout: cfg.Time.QueryTimeout,
		Logger:       logging.WithComponent(a.log, "clock"),
	})
}

func (a *app) secretStore(cfg config.Config) (*chain.Store, error) {
	store, err := chain.NewPassFirstWithFileFallback(cfg.Secrets.PassPrefix, cfg.SecretsDir())
	if err != nil {
		return nil, fmt.Errorf("wire secret store: %w", err)
	}
	return store, nil
}

// apiToken returns the literal token, or the secret named by api.token_ref.
func (a *app) apiToken(ctx context.Context, cfg config.Config) (string, error) {
	if cfg.API.Token != "" || cfg.API.TokenRef == "" {
		return cfg.API.Token, nil
	}

	store, err := a.secretStore(cfg)
	if err != nil {
		return "", err
	}
	token, err := store.Get(ctx, cfg.API.TokenRef)
	if err != nil {
		return "", fmt.Errorf("resolve api token %q: %w", cfg.API.TokenRef, err)
	}
	return token, nil
}

// newDataSource does not fail. An unresolved token sends the fetch without
// one and an unusable probe address leaves the link down, so the cycle can
// still fall back to the cache.
func (a *app) newDataSource(ctx context.Context, cfg config.Config, clock *timesync.Clock) *application.DataSource {
	log := logging.WithComponent(a.log, "source")

	token := cfg.API.Token
	if !cfg.API.Mock {
		resolved, err := a.apiToken(ctx, cfg)
		if err != nil {
			log.WithError(err).Warn("api token unavailable, fetching without it")
		}
		token = resolved
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()

	var link ports.Link
	probeAddress := cfg.Network.ProbeAddress
	if probeAddress == "" && cfg.API.URL != "" {
		derived, err := probe.AddressFromURL(cfg.API.URL)
		if err != nil {
			log.WithError(err).Warn("no probe address, network link stays down")
		}
		probeAddress = derived
	}
	if probeAddress != "" {
		link = &probe.Link{
			Address:     probeAddress,
			DialTimeout: cfg.Network.DialTimeout,
			Transport:   transport,
		}
	}

	return application.NewDataSource(application.DataSourceOptions{
		Link:      link,
		ClockSync: clock,
		Clock:     clock,
		Remote: &source.HTTPFetcher{
			URL:        cfg.API.URL,
			Token:      token,
			UserAgent:  userAgent(),
			Timeout:    cfg.API.Timeout,
			HTTPClient: &http.Client{Transport: transport},
		},
		Mock:           source.MockFetcher{},
		MockMode:       cfg.API.Mock,
		JoinPolicy:     application.PollPolicy{MaxAttempts: cfg.Network.JoinAttempts, Interval: cfg.Network.JoinInterval},
		SyncPolicy:     application.PollPolicy{MaxAttempts: cfg.Time.SyncAttempts, Interval: cfg.Time.SyncInterval},
		FetchTimeout:   cfg.API.Timeout,
		TimezoneOffset: cfg.TimezoneOffset(),
		Logger:         log,
	})
}

func userAgent() string {
	agent := "goalpanel/" + version.Version
	if host, err := os.Hostname(); err == nil && host != "" {
		agent += " (" + host + ")"
	}
	return agent
}

// newSurface builds the panel on the recording driver. When out is non-nil
// every completed refresh is printed there as a terminal preview.
func (a *app) newSurface(cfg config.Config, out io.Writer, withPin bool) *panel.Surface {
	log := logging.WithComponent(a.log, "display")

	driver := &record.Driver{
		PanelWidth:  cfg.Display.Width,
		PanelHeight: cfg.Display.Height,
		PageHeight:  cfg.Display.PageHeight,
	}
	if out != nil {
		driver.OnFrame = func(frame record.Frame) {
			rendered, err := previewadapter.Render(frame)
			if err != nil {
				log.WithError(err).Warn("render preview")
				return
			}
			_, _ = fmt.Fprintln(out, rendered)
		}
	}

	var pin ports.PowerPin
	if withPin && cfg.Display.PowerPin >= 0 {
		if _, err := os.Stat(cfg.Display.GPIORoot); err != nil {
			log.WithError(err).WithField("gpio_root", cfg.Display.GPIORoot).Warn("gpio not available, panel power is not switched")
		} else {
			pin = sysfs.NewPin(cfg.Display.GPIORoot, cfg.Display.PowerPin)
		}
	}

	return panel.New(panel.Options{
		Driver:      driver,
		Pin:         pin,
		Rotation:    cfg.Display.Rotation,
		PowerSettle: cfg.Display.PowerSettle,
		Logger:      log,
	})
}

func isContextDone(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
