package di

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/do/v2"

	"github.com/detkit/detconf/internal/catalog"
	"github.com/detkit/detconf/internal/server"
	"github.com/detkit/detconf/internal/settings"
	"github.com/detkit/detconf/internal/store"
)

// Service wrapper types for DI registration. These provide type safety
// and allow distinguishing between similar types.

// SettingsService wraps the loaded settings.
type SettingsService struct {
	Settings *settings.Settings
}

// LoggerService wraps the zerolog logger for DI.
type LoggerService struct {
	Logger *zerolog.Logger
}

// StoreService wraps the experiment store.
type StoreService struct {
	Store *store.Store
}

// DatasetCatalogService wraps the dataset catalog.
type DatasetCatalogService struct {
	Catalog *catalog.DatasetCatalog
}

// HandlerService wraps the HTTP handler.
type HandlerService struct {
	Handler http.Handler
}

// ServerService wraps the HTTP server.
type ServerService struct {
	Server *server.Server
}

// RegisterSingletons registers all service providers as singletons.
// Services are registered in dependency order:
// 1. Settings (no dependencies)
// 2. Logger (depends on Settings)
// 3. Store (depends on Settings, Logger)
// 4. DatasetCatalog (depends on Settings)
// 5. Handler (depends on Settings, Store, DatasetCatalog)
// 6. Server (depends on Settings, Handler).
func RegisterSingletons(i do.Injector) {
	do.Provide(i, NewSettings)
	do.Provide(i, NewLogger)
	do.Provide(i, NewStore)
	do.Provide(i, NewDatasetCatalog)
	do.Provide(i, NewHandler)
	do.Provide(i, NewHTTPServer)
}

// NewSettings loads the settings from the configured path. An empty
// path yields the built-in defaults.
func NewSettings(i do.Injector) (*SettingsService, error) {
	path := do.MustInvokeNamed[string](i, SettingsPathKey)

	if path == "" {
		return &SettingsService{Settings: settings.Default()}, nil
	}

	stg, err := settings.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings from %s: %w", path, err)
	}

	return &SettingsService{Settings: stg}, nil
}

// NewLogger builds the service logger from the logging settings.
func NewLogger(i do.Injector) (*LoggerService, error) {
	stgSvc := do.MustInvoke[*SettingsService](i)

	logger, err := server.NewLogger(stgSvc.Settings.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return &LoggerService{Logger: &logger}, nil
}

// NewStore opens the experiment store.
func NewStore(i do.Injector) (*StoreService, error) {
	stgSvc := do.MustInvoke[*SettingsService](i)
	logSvc := do.MustInvoke[*LoggerService](i)

	st, err := store.New(
		stgSvc.Settings.Store.Dir,
		store.WithCacheSize(stgSvc.Settings.Cache.NumCounters, stgSvc.Settings.Cache.MaxCost),
		store.WithLogger(*logSvc.Logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open experiment store: %w", err)
	}

	return &StoreService{Store: st}, nil
}

// Shutdown implements do.Shutdowner for store teardown.
func (s *StoreService) Shutdown() error {
	if s.Store != nil {
		s.Store.Close()
	}
	return nil
}

// NewDatasetCatalog builds the dataset catalog, merging the optional
// catalog file over the builtin entries.
func NewDatasetCatalog(i do.Injector) (*DatasetCatalogService, error) {
	stgSvc := do.MustInvoke[*SettingsService](i)

	datasets := catalog.NewDatasetCatalog(catalog.WithDataDir(stgSvc.Settings.Store.DataDir))
	if file := stgSvc.Settings.Store.CatalogFile; file != "" {
		if err := datasets.LoadFile(file); err != nil {
			return nil, fmt.Errorf("failed to load dataset catalog: %w", err)
		}
	}

	return &DatasetCatalogService{Catalog: datasets}, nil
}

// NewHandler builds the resolver API handler.
func NewHandler(i do.Injector) (*HandlerService, error) {
	stgSvc := do.MustInvoke[*SettingsService](i)
	storeSvc := do.MustInvoke[*StoreService](i)
	catalogSvc := do.MustInvoke[*DatasetCatalogService](i)

	handler := server.SetupRoutes(stgSvc.Settings.Server, storeSvc.Store, catalogSvc.Catalog)

	return &HandlerService{Handler: handler}, nil
}

// NewHTTPServer creates the HTTP server.
func NewHTTPServer(i do.Injector) (*ServerService, error) {
	stgSvc := do.MustInvoke[*SettingsService](i)
	handlerSvc := do.MustInvoke[*HandlerService](i)

	srv := server.NewServer(
		stgSvc.Settings.Server.Listen,
		handlerSvc.Handler,
		stgSvc.Settings.Server.EnableH2C,
	)

	return &ServerService{Server: srv}, nil
}

// Shutdown implements do.Shutdowner for graceful server shutdown.
func (s *ServerService) Shutdown() error {
	if s.Server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return s.Server.Shutdown(ctx)
	}
	return nil
}
