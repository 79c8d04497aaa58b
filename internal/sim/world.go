// Package sim hosts entities and drives them concurrently.
//
// Each entity is guarded by its own mutex, so one entity never processes two
// events at once while different entities run in parallel. A dispatch also
// holds the mutex of every entity the addressed one nests, so a nested entity
// shared by several others is serialised too.
package sim

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/rpgcore/internal/entity"
)

var (
	ErrEntityNotFound  = errors.New("entity not found")
	ErrDuplicateEntity = errors.New("entity already registered")
)

// DefaultWorkers is used when a World is created with workers <= 0.
const DefaultWorkers = 4

type slot struct {
	entity *entity.Entity
}

// entityLock serialises dispatches into one entity. Locks are always taken in
// ascending id order.
type entityLock struct {
	id uint64
	mu sync.Mutex
}

// World is a registry of entities keyed by name.
//
// Entities must not gain behaviours while registered.
type World struct {
	entities sync.Map // map[string]*slot
	// locks outlive Remove: a removed entity may still be nested elsewhere.
	locks    sync.Map // map[*entity.Entity]*entityLock
	nextLock atomic.Uint64
	count    atomic.Int32
	workers  int
}

// NewWorld creates an empty world whose ticks run at most workers
// dispatches at a time.
func NewWorld(workers int) *World {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &World{workers: workers}
}

// Add registers e under its name.
func (w *World) Add(e *entity.Entity) error {
	if e == nil {
		return fmt.Errorf("entity cannot be nil")
	}
	if _, loaded := w.entities.LoadOrStore(e.Name(), &slot{entity: e}); loaded {
		return fmt.Errorf("adding %q: %w", e.Name(), ErrDuplicateEntity)
	}
	w.count.Add(1)
	w.lockFor(e)

	slog.Debug("entity registered", "entity", e.Name(), "behaviours", e.Len())
	return nil
}

// Remove unregisters the entity called name. Returns false if there was none.
func (w *World) Remove(name string) bool {
	if _, ok := w.entities.LoadAndDelete(name); !ok {
		return false
	}
	w.count.Add(-1)

	slog.Debug("entity unregistered", "entity", name)
	return true
}

// Get returns the entity called name.
func (w *World) Get(name string) (*entity.Entity, error) {
	s, err := w.slot(name)
	if err != nil {
		return nil, err
	}
	return s.entity, nil
}

// Count returns the number of registered entities.
func (w *World) Count() int {
	return int(w.count.Load())
}

// Names returns registered entity names in sorted order.
func (w *World) Names() []string {
	names := make([]string, 0, w.Count())
	w.entities.Range(func(key, _ any) bool {
		names = append(names, key.(string))
		return true
	})
	sort.Strings(names)
	return names
}

// Dispatch sends ev to the entity called name and returns its answer.
// Dispatches that share an entity, either addressed or nested, are serialised.
func (w *World) Dispatch(name string, ev entity.Event) (entity.Event, error) {
	s, err := w.slot(name)
	if err != nil {
		return entity.Nothing(), err
	}
	unlock := w.lockReachable(s.entity)
	defer unlock()
	return s.entity.SendEvent(ev), nil
}

// lockReachable locks root and every entity it delegates to, and returns
// the matching unlock. Every dispatch orders its locks by id, so two
// dispatches over overlapping entity graphs cannot deadlock.
func (w *World) lockReachable(root *entity.Entity) func() {
	reach := root.Reachable()
	locks := make([]*entityLock, 0, len(reach))
	for _, e := range reach {
		locks = append(locks, w.lockFor(e))
	}
	slices.SortFunc(locks, func(a, b *entityLock) int {
		return cmp.Compare(a.id, b.id)
	})

	for _, l := range locks {
		l.mu.Lock()
	}
	return func() {
		for i := len(locks) - 1; i >= 0; i-- {
			locks[i].mu.Unlock()
		}
	}
}

func (w *World) lockFor(e *entity.Entity) *entityLock {
	if v, ok := w.locks.Load(e); ok {
		return v.(*entityLock)
	}
	v, _ := w.locks.LoadOrStore(e, &entityLock{id: w.nextLock.Add(1)})
	return v.(*entityLock)
}

// Tick dispatches ev to every registered entity and collects the answers by
// entity name. Entities removed while the tick runs are skipped.
func (w *World) Tick(ctx context.Context, ev entity.Event) (map[string]entity.Event, error) {
	names := w.Names()
	out := make(map[string]entity.Event, len(names))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(w.workers)

	for _, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			resp, err := w.Dispatch(name, ev)
			if errors.Is(err, ErrEntityNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			mu.Lock()
			out[name] = resp
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("tick: %w", err)
	}

	if IsDebugEnabled() {
		slog.Debug("tick completed", "event", ev.String(), "entities", len(out))
	}
	return out, nil
}

// Run calls Tick every interval until ctx is cancelled. Non-nothing answers
// are passed to observe when it is not nil.
func (w *World) Run(ctx context.Context, interval time.Duration, ev entity.Event, observe func(name string, resp entity.Event)) error {
	if interval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("simulation started", "interval", interval, "entities", w.Count(), "workers", w.workers)

	for {
		select {
		case <-ctx.Done():
			slog.Info("simulation stopping")
			return ctx.Err()

		case <-ticker.C:
			answers, err := w.Tick(ctx, ev)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return err
			}
			if observe == nil {
				continue
			}
			for _, name := range sortedKeys(answers) {
				if resp := answers[name]; !resp.IsNothing() {
					observe(name, resp)
				}
			}
		}
	}
}

func (w *World) slot(name string) (*slot, error) {
	v, ok := w.entities.Load(name)
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrEntityNotFound)
	}
	return v.(*slot), nil
}

func sortedKeys(m map[string]entity.Event) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
