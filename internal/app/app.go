package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/five82/flowgate/internal/config"
	"github.com/five82/flowgate/internal/flow"
	"github.com/five82/flowgate/internal/kv"
	"github.com/five82/flowgate/internal/logging"
	"github.com/five82/flowgate/internal/metrics"
	"github.com/five82/flowgate/internal/obfuscate"
	"github.com/five82/flowgate/internal/prefs"
	"github.com/five82/flowgate/internal/resolver"
	"github.com/five82/flowgate/internal/ui"
)

// KeyInstallID holds the generated installation id.
const KeyInstallID = "attribution.install_id"

const shutdownTimeout = 3 * time.Second

// Options configure the flowgate host.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/flowgate/prefs.toml
	// Headless skips the status view and runs until ctx is cancelled.
	Headless bool
}

// Run boots the flow engine and its status surface until the user quits or
// the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	store, err := OpenStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("close store failed", zap.Error(err))
		}
	}()

	id, err := InstallID(ctx, store, cfg.Attribution.InstallID)
	if err != nil {
		return err
	}

	client, err := resolver.NewClient(cfg.BaseEndpoint, cfg.RequestTimeout)
	if err != nil {
		return eris.Wrap(err, "init resolver")
	}

	reg := prometheus.NewRegistry()
	recorder := metrics.New(reg)

	var (
		prompter   flow.RatingPrompter
		uiPrompter *ui.Prompter
	)
	if opts.Headless {
		prompter = flow.RatingPrompterFunc(func(context.Context) error {
			log.Info("rating prompt requested")
			return nil
		})
	} else {
		uiPrompter = ui.NewPrompter()
		prompter = uiPrompter
	}

	ctrl, err := flow.New(flow.Deps{
		Resolver: client,
		Store:    store,
		SDK:      &ConfigSDK{ID: id, Delay: cfg.Attribution.Delay, Fields: cfg.Attribution.Fields},
		Device:   flow.StaticDevice(cfg.DeviceClass),
		Prompter: prompter,
		Codec:    obfuscate.Default,
		Logger:   log,
		Metrics:  recorder,
	}, cfg.FlowSettings())
	if err != nil {
		return eris.Wrap(err, "init flow")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := ctrl.Start(ctx); err != nil {
		return err
	}
	log.Info("flowgate started",
		zap.String("base_endpoint", cfg.BaseEndpoint),
		zap.String("install_id", id),
		zap.String("store", cfg.Store.Backend),
		zap.Bool("headless", opts.Headless),
	)

	StartWatcher(ctx, ctrl, log)

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Metrics.Addr != "" {
		srv := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           metricsMux(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			log.Info("metrics listening", zap.String("addr", cfg.Metrics.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return eris.Wrap(err, "metrics listen")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		<-ctrl.Done()
		return nil
	})

	g.Go(func() error {
		// Quitting the surface stops everything else.
		defer cancel()
		if opts.Headless {
			<-gctx.Done()
			return nil
		}
		userPrefs := prefs.Load(opts.PrefsPath)
		return ui.Run(ui.Options{
			Context:   gctx,
			Source:    ctrl,
			Prompter:  uiPrompter,
			LogPath:   cfg.Log.Path,
			ThemeName: userPrefs.Theme,
			ShowLogs:  userPrefs.ShowLogs,
			PrefsPath: opts.PrefsPath,
			Logger:    log.Named("ui"),
		})
	})

	err = g.Wait()
	log.Info("flowgate stopped")
	return err
}

func metricsMux(g prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metrics.Handler(g))
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

// OpenStore opens the configured key-value backend.
func OpenStore(ctx context.Context, cfg config.Store) (kv.Store, error) {
	switch cfg.Backend {
	case "", config.BackendFile:
		store, err := kv.OpenFile(cfg.Path)
		if err != nil {
			return nil, eris.Wrap(err, "open file store")
		}
		return store, nil
	case config.BackendSQLite:
		store, err := kv.OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, eris.Wrap(err, "open sqlite store")
		}
		return store, nil
	default:
		return nil, eris.Wrapf(config.ErrInvalid, "store backend %q", cfg.Backend)
	}
}

// InstallID returns the installation id. An explicit override wins; otherwise
// the persisted id is reused, or a new one is generated and saved.
func InstallID(ctx context.Context, store kv.Store, override string) (string, error) {
	if override != "" {
		return override, nil
	}
	id, ok, err := store.Get(ctx, KeyInstallID)
	if err != nil {
		return "", eris.Wrap(err, "read install id")
	}
	if ok && id != "" {
		return id, nil
	}
	id = uuid.New().String()
	if err := store.Set(ctx, KeyInstallID, id); err != nil {
		return "", eris.Wrap(err, "save install id")
	}
	return id, nil
}
