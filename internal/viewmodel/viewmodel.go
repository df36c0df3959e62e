// Package viewmodel holds the presentation state of the contact list: the
// draft form, the active sort criterion and the live listing from the
// store, combined into one ViewState stream, plus the single Dispatch
// entry point that turns user events into state changes and store
// mutations.
package viewmodel

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/contactbook/internal/clock"
	"github.com/mesh-intelligence/contactbook/internal/live"
	"github.com/mesh-intelligence/contactbook/pkg/types"
)

// errorBuffer bounds ViewModel.Errors. Failures beyond it are only logged.
const errorBuffer = 16

// Config tunes a ViewModel. The zero value is usable.
type Config struct {
	// GracePeriod keeps the live query open after the last observer
	// leaves. Zero selects types.DefaultGracePeriod.
	GracePeriod time.Duration

	// InitialSort is the criterion before any SortContacts event.
	InitialSort types.SortCriterion

	// Clock drives the grace timer. Nil selects the system clock.
	Clock clock.Clock

	// OnSaved, when set, is called from the background task after each
	// successful upsert, with the ID the store assigned.
	OnSaved func(types.Contact)
}

// Validate checks the Config.
func (c Config) Validate() error {
	if c.GracePeriod < 0 {
		return types.ErrGracePeriodInvalid
	}
	if !c.InitialSort.Valid() {
		return types.ErrInvalidSortCriterion
	}
	return nil
}

// ViewModel is the state holder behind a contact list screen.
//
// Thread-safety: all methods are safe for concurrent use.
type ViewModel struct {
	store    types.ContactStore
	log      *zap.Logger
	draft    *live.Cell[types.Draft]
	selector *SortSelector
	pipeline *Pipeline
	onSaved  func(types.Contact)

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	tasks  errgroup.Group
	errs   chan error
}

// New creates a view model reading from and writing to store. A nil
// logger discards logs.
func New(store types.ContactStore, cfg Config, logger *zap.Logger) (*ViewModel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.GracePeriod == 0 {
		cfg.GracePeriod = types.DefaultGracePeriod
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	log := logger.Named("viewmodel")

	ctx, cancel := context.WithCancel(context.Background())
	selector := NewSortSelector(cfg.InitialSort)
	vm := &ViewModel{
		store:    store,
		log:      log,
		draft:    live.NewCell(types.Draft{}, live.Equal[types.Draft]),
		selector: selector,
		pipeline: newPipeline(store, selector, cfg.Clock, cfg.GracePeriod, log.Named("pipeline")),
		onSaved:  cfg.OnSaved,
		ctx:      ctx,
		cancel:   cancel,
		errs:     make(chan error, errorBuffer),
	}
	go vm.pipeline.run(ctx)

	log.Debug("view model created",
		zap.Duration("grace_period", cfg.GracePeriod),
		zap.Stringer("sort", cfg.InitialSort),
	)
	return vm, nil
}

// Observe returns the current ViewState followed by a new one whenever
// the draft, the criterion or the listing changes. A slow reader only
// sees the newest state. The channel closes when ctx ends or the view
// model is closed.
func (vm *ViewModel) Observe(ctx context.Context) <-chan types.ViewState {
	return live.Combine3(ctx,
		vm.draft.Observe(ctx),
		vm.selector.Observe(ctx),
		vm.pipeline.Observe(ctx),
		func(d types.Draft, c types.SortCriterion, s Snapshot) types.ViewState {
			return types.NewViewState(d, c, s.Contacts, s.Err)
		},
	)
}

// Selector returns the sort selector.
func (vm *ViewModel) Selector() *SortSelector {
	return vm.selector
}

// Pipeline returns the live query pipeline.
func (vm *ViewModel) Pipeline() *Pipeline {
	return vm.pipeline
}

// Draft returns the current form input.
func (vm *ViewModel) Draft() types.Draft {
	return vm.draft.Get()
}

// Errors reports background store mutations that failed. It is closed by
// Close.
func (vm *ViewModel) Errors() <-chan error {
	return vm.errs
}

// Close waits for in-flight store mutations, stops the live query and
// closes every observer channel. It returns the first mutation error, if
// any. Calling Close again returns nil.
func (vm *ViewModel) Close() error {
	vm.mu.Lock()
	if vm.closed {
		vm.mu.Unlock()
		return nil
	}
	vm.closed = true
	vm.mu.Unlock()

	err := vm.tasks.Wait()

	vm.cancel()
	<-vm.pipeline.done
	vm.pipeline.close()
	vm.selector.close()
	vm.draft.Close()
	close(vm.errs)

	vm.log.Debug("view model closed", zap.Error(err))
	return err
}

// spawn runs a store mutation in the background. It reports false when
// the view model is closed.
func (vm *ViewModel) spawn(op string, fn func(ctx context.Context) error) bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.closed {
		return false
	}
	vm.goLocked(op, fn)
	return true
}

// goLocked starts fn as a tracked task. The caller must hold vm.mu and
// have checked that the view model is open.
func (vm *ViewModel) goLocked(op string, fn func(ctx context.Context) error) {
	vm.tasks.Go(func() error {
		err := fn(vm.ctx)
		if err != nil {
			vm.log.Warn("store mutation failed", zap.String("op", op), zap.Error(err))
			select {
			case vm.errs <- err:
			default:
			}
		}
		return err
	})
}

func (vm *ViewModel) isClosed() bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.closed
}
