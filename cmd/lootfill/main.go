// Lootfill generates random items and stuffs each one into an inventory
// stack_limit times until the inventory overflows, then prints the result.
//
// Usage:
//
//	go run ./cmd/lootfill                      # fresh seed, config defaults
//	go run ./cmd/lootfill -seed 42 -slots 10   # reproducible, smaller bag
//	go run ./cmd/lootfill -save chest          # also snapshot into PostgreSQL
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/udisondev/rpgcore/internal/config"
	"github.com/udisondev/rpgcore/internal/db"
	"github.com/udisondev/rpgcore/internal/itemgen"
	"github.com/udisondev/rpgcore/internal/model"
)

func main() {
	seed := flag.Uint64("seed", 0, "generator seed (0: config value, then random)")
	slots := flag.Int("slots", 0, "inventory slots (0: config value)")
	owner := flag.String("save", "", "save the filled inventory under this owner (needs database.enabled)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout, *seed, *slots, *owner); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer, seed uint64, slots int, owner string) error {
	cfg, err := config.Load(config.Path())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))

	if seed == 0 {
		seed = cfg.Generator.Seed
	}
	if seed == 0 {
		if seed, err = itemgen.NewSeed(); err != nil {
			return err
		}
	}
	if slots == 0 {
		slots = cfg.Inventory.MaxSlots
	}

	inv, err := model.NewInventory(slots)
	if err != nil {
		return err
	}

	gen := itemgen.New(itemgen.NewSource(seed), nil)
	drawn := fill(gen, inv, cfg.Generator.Count)
	slog.Info("inventory filled", "seed", seed, "items_drawn", drawn, "slots", inv.Len())

	if err := inv.WriteTable(out); err != nil {
		return fmt.Errorf("printing inventory: %w", err)
	}

	if owner == "" {
		return nil
	}
	if !cfg.Database.Enabled {
		return errors.New("-save needs database.enabled in config")
	}

	database, err := db.New(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()

	if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	if err := database.Inventories().Save(ctx, owner, inv); err != nil {
		return fmt.Errorf("saving inventory: %w", err)
	}
	return nil
}

// fill draws items and inserts each stack_limit times until an insert
// overflows, or until limit items were drawn when limit > 0.
// Returns the number of items drawn.
func fill(gen *itemgen.Generator, inv *model.Inventory, limit int) int {
	drawn := 0
	for limit <= 0 || drawn < limit {
		item := gen.Generate()
		drawn++
		for range item.StackLimit() {
			if err := inv.Insert(item); err != nil {
				slog.Debug("inventory overflow", "item", item.String())
				return drawn
			}
		}
	}
	return drawn
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
