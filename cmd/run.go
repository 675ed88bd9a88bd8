package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/abhisek/tunequiz/internal/app"
	"github.com/abhisek/tunequiz/internal/catalog"
	"github.com/abhisek/tunequiz/internal/config"
	"github.com/abhisek/tunequiz/internal/engine"
	"github.com/abhisek/tunequiz/internal/logging"
	"github.com/abhisek/tunequiz/internal/media"
	"github.com/abhisek/tunequiz/internal/progress"
	"github.com/abhisek/tunequiz/internal/quiz"
	"github.com/abhisek/tunequiz/internal/store"
)

// deps holds what a command needs, built from config and flags.
type deps struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *store.Store
	catalog *catalog.Catalog
	engine  *engine.Engine
	closers []func() error
}

// setup loads config, opens the store and catalog and builds the engine.
// Interactive runs log to a file because the TUI owns the terminal.
func setup(cmd *cobra.Command, interactive bool) (*deps, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	d := &deps{cfg: cfg}
	if interactive {
		logger, closeLog, err := logging.SetupFile(cfg.LogFile, cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("set up logging: %w", err)
		}
		d.logger = logger
		d.closers = append(d.closers, closeLog)
	} else {
		if d.logger, err = logging.SetupStderr(cfg.LogLevel); err != nil {
			return nil, fmt.Errorf("set up logging: %w", err)
		}
	}

	dbPath, err := cfg.ResolveDBPath()
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}
	d.store = st
	d.closers = append(d.closers, st.Close)

	catalogPath, err := cfg.ResolveCatalogPath()
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("resolve catalog path: %w", err)
	}
	if d.catalog, err = catalog.Load(catalogPath, d.logger); err != nil {
		d.Close()
		return nil, err
	}

	d.engine = engine.New(
		media.NewHTTPStore(nil, cfg.HTTP()),
		progress.NewStore(st.KeyValue()),
		engine.WithLogger(d.logger),
		engine.WithSessionConfig(cfg.Session()),
		engine.WithPolicy(cfg.Policy()),
		engine.WithHistory(st.EventRepo()),
	)
	d.closers = append(d.closers, func() error {
		d.engine.Close()
		return nil
	})

	d.logger.Debug("ready", "db", dbPath, "catalog", catalogPath, "playlists", d.catalog.Len())
	return d, nil
}

// Close releases resources in reverse order of acquisition.
func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil && d.logger != nil {
			d.logger.Warn("close failed", "error", err)
		}
	}
	d.closers = nil
}

// playlist looks up id in the catalog.
func (d *deps) playlist(id string) (*quiz.Playlist, error) {
	p, ok := d.catalog.Playlist(id)
	if !ok {
		return nil, fmt.Errorf("playlist %q not found", id)
	}
	return p, nil
}

// loadConfig reads TUNEQUIZ_* variables and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if v, _ := cmd.Flags().GetString("db"); v != "" {
		cfg.DBPath = v
	}
	if v, _ := cmd.Flags().GetString("catalog"); v != "" {
		cfg.CatalogPath = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// runApp builds dependencies and launches the TUI, optionally straight
// into a playlist.
func runApp(cmd *cobra.Command, start *string) error {
	d, err := setup(cmd, true)
	if err != nil {
		return err
	}
	defer d.Close()

	opts := app.Options{
		Engine:  d.engine,
		Catalog: d.catalog,
		History: d.store.EventRepo(),
		Logger:  d.logger,
	}
	if start != nil {
		if opts.Start, err = d.playlist(*start); err != nil {
			return err
		}
		if err := quiz.Validate(opts.Start); err != nil {
			return fmt.Errorf("cannot play %s: %w", *start, err)
		}
	}

	return app.Run(opts)
}
