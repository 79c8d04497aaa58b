package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/rpgcore/internal/config"
	"github.com/udisondev/rpgcore/internal/db"
	"github.com/udisondev/rpgcore/internal/entity"
	"github.com/udisondev/rpgcore/internal/itemgen"
	"github.com/udisondev/rpgcore/internal/model"
	"github.com/udisondev/rpgcore/internal/sim"
	"github.com/udisondev/rpgcore/internal/transport/ws"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load config FIRST to determine log level
	cfg, err := config.Load(config.Path())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))
	sim.EnableDebugLogging(logLevel == slog.LevelDebug)

	slog.Info("rpgcore server starting",
		"log_level", cfg.LogLevel,
		"bind", cfg.Server.BindAddress,
		"port", cfg.Server.Port,
		"workers", cfg.Simulation.Workers)

	seed := cfg.Generator.Seed
	if seed == 0 {
		if seed, err = itemgen.NewSeed(); err != nil {
			return err
		}
	}
	gen := itemgen.New(itemgen.NewSource(seed), nil)

	var inventories *db.InventoryRepository
	if cfg.Database.Enabled {
		database, err := db.New(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()
		slog.Info("database connected")

		if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("database migrations applied")
		inventories = database.Inventories()
	}

	chest, err := loadChest(ctx, inventories, cfg.Inventory.MaxSlots)
	if err != nil {
		return err
	}

	world, err := buildWorld(cfg.Simulation.Workers, gen, chest)
	if err != nil {
		return fmt.Errorf("building world: %w", err)
	}
	slog.Info("world ready", "seed", seed, "entities", world.Names())

	server := ws.NewServer(cfg.Server, world)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting simulation", "interval", cfg.Simulation.TickInterval)
		err := world.Run(gctx, cfg.Simulation.TickInterval, entity.Push(), func(name string, resp entity.Event) {
			slog.Debug("entity answered tick", "entity", name, "event", resp.String())
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("simulation: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		slog.Info("starting websocket server", "address", cfg.Server.Addr())
		if err := server.Run(gctx); err != nil {
			return fmt.Errorf("websocket server: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	// Both the ticker and the server have stopped dispatching by now.
	if inventories != nil {
		saveCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := inventories.Save(saveCtx, chestName, chest); err != nil {
			slog.Error("save chest on shutdown", "error", err)
		}
	}
	return nil
}

// loadChest restores the chest snapshot, or returns an empty inventory
// when there is no database.
func loadChest(ctx context.Context, repo *db.InventoryRepository, maxSlots int) (*model.Inventory, error) {
	if repo == nil {
		return model.NewInventory(maxSlots)
	}
	inv, err := repo.Load(ctx, chestName, maxSlots)
	if err != nil {
		return nil, fmt.Errorf("loading chest: %w", err)
	}
	slog.Info("chest restored", "slots", inv.Len())
	return inv, nil
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
