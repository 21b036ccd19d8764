package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/scenestore/internal/config"
	"github.com/zeusync/scenestore/internal/core/events/bus"
	"github.com/zeusync/scenestore/internal/core/observability/log"
	"github.com/zeusync/scenestore/internal/core/scene"
	"github.com/zeusync/scenestore/internal/core/store"
	"github.com/zeusync/scenestore/internal/persist"
	"github.com/zeusync/scenestore/internal/server"
)

// App is everything editord runs.
type App struct {
	Config *config.Config
	Logger *log.Logger
	Store  *store.Store
	Server *server.Server
	// Autosaver is nil when autosave is disabled.
	Autosaver *persist.Autosaver
}

var ProviderSet = wire.NewSet(
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	ProvideBus,
	ProvideStore,
	ProvideServer,
	ProvideAutosaver,
	wire.Struct(new(App), "*"),
)

func ProvideLogger(cfg *config.Config) (*log.Logger, func(), error) {
	logger, err := log.NewWithOptions(log.Options{
		Level:    cfg.LogLevel(),
		Encoding: cfg.Log.Encoding,
	})
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = logger.Sync() }, nil
}

func ProvideBus() bus.EventBus {
	return bus.New()
}

func ProvideStore(logger log.Log, b bus.EventBus, cfg *config.Config) *store.Store {
	return store.New(logger, b,
		store.WithHistoryDepth(cfg.History.MaxDepth),
		store.WithTemplate(scene.Template(cfg.Scene.Template)),
		store.WithSceneName(cfg.Scene.DefaultName),
	)
}

func ProvideServer(st *store.Store, logger log.Log, cfg *config.Config) *server.Server {
	return server.New(st, logger, server.Config{
		ListenAddr:      cfg.Server.ListenAddr,
		ClientBuffer:    cfg.Server.ClientBuffer,
		Token:           cfg.Server.Token,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		ActionRateLimit: cfg.Server.ActionRateLimit,
		SaveDir:         cfg.Server.SaveDir,
	})
}

func ProvideAutosaver(srv *server.Server, logger log.Log, cfg *config.Config) *persist.Autosaver {
	if cfg.Scene.AutosaveInterval <= 0 {
		return nil
	}
	return &persist.Autosaver{
		Interval: cfg.Scene.AutosaveInterval,
		Do:       srv.Do,
		Logger:   logger,
	}
}
