package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/scenestore/internal/config"
	"github.com/zeusync/scenestore/internal/core/observability/log"
	"github.com/zeusync/scenestore/internal/core/store"
	"github.com/zeusync/scenestore/internal/injector"
	"github.com/zeusync/scenestore/internal/persist"
	"github.com/zeusync/scenestore/internal/scenefile"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "editord:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "path to a YAML config file")
		scenePath  = flag.String("scene", "", "scene file to open at startup (overrides scene.path)")
		addr       = flag.String("addr", "", "listen address (overrides server.listen_addr)")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *scenePath != "" {
		cfg.Scene.Path = *scenePath
	}
	if *addr != "" {
		cfg.Server.ListenAddr = *addr
	}

	app, cleanup, err := injector.InitializeApp(cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	defer app.Server.Close()

	if cfg.Scene.Path != "" {
		data, err := scenefile.Load(cfg.Scene.Path)
		if err != nil {
			return fmt.Errorf("open scene: %w", err)
		}
		if err := app.Store.LoadScene(data, cfg.Scene.Path); err != nil {
			return fmt.Errorf("open scene: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	if cfg.Server.Enabled {
		g.Go(func() error { return app.Server.Run(ctx) })
	}
	if app.Autosaver != nil {
		g.Go(func() error { return app.Autosaver.Run(ctx) })
	}
	g.Go(func() error {
		<-ctx.Done()
		return nil
	})

	err = g.Wait()
	if app.Autosaver != nil {
		app.Server.Do(func(st *store.Store) {
			if _, saveErr := persist.SaveIfDirty(st); saveErr != nil {
				app.Logger.Error("final save failed", log.Error(saveErr))
			}
		})
	}
	app.Logger.Info("editord stopped")
	return err
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.Default()
		return &cfg, nil
	}
	return config.LoadFile(path)
}
