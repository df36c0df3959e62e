package viewmodel

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/contactbook/internal/clock"
	"github.com/mesh-intelligence/contactbook/internal/live"
	"github.com/mesh-intelligence/contactbook/pkg/types"
)

// State is the lifecycle of the pipeline's store subscription.
type State int

// Pipeline states.
const (
	Unsubscribed State = iota
	Subscribing
	Subscribed
)

func (s State) String() string {
	switch s {
	case Unsubscribed:
		return "unsubscribed"
	case Subscribing:
		return "subscribing"
	case Subscribed:
		return "subscribed"
	default:
		return "unknown"
	}
}

// Status is the pipeline state together with the criterion of the
// current (or last) subscription.
type Status struct {
	State     State
	Criterion types.SortCriterion
}

// Snapshot is one listing published by the pipeline. Contacts is ordered
// by Criterion. Err is set when the store query failed; Contacts then
// holds the last good listing.
type Snapshot struct {
	Criterion types.SortCriterion
	Contacts  []types.Contact
	Err       error
}

// subscription is one open store query.
type subscription struct {
	criterion types.SortCriterion
	results   <-chan types.QueryResult
	cancel    context.CancelFunc
}

// Pipeline keeps at most one live store query open, keyed by the
// selector's criterion, and republishes its listings to any number of
// observers.
//
// A single goroutine started by run owns the subscription. Observers,
// criterion changes, the grace timer and store results all reach it
// through channels.
type Pipeline struct {
	store    types.ContactStore
	selector *SortSelector
	clock    clock.Clock
	grace    time.Duration
	log      *zap.Logger

	latest *live.Cell[Snapshot]
	status *live.Cell[Status]

	attach chan struct{}
	detach chan struct{}
	done   chan struct{}
}

func newPipeline(store types.ContactStore, selector *SortSelector, clk clock.Clock, grace time.Duration, log *zap.Logger) *Pipeline {
	initial := selector.Current()
	return &Pipeline{
		store:    store,
		selector: selector,
		clock:    clk,
		grace:    grace,
		log:      log,
		latest:   live.NewCell(Snapshot{Criterion: initial, Contacts: []types.Contact{}}, nil),
		status:   live.NewCell(Status{State: Unsubscribed, Criterion: initial}, live.Equal[Status]),
		attach:   make(chan struct{}),
		detach:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Observe returns the latest listing followed by every new one. Before
// the store has delivered anything the listing is empty. The channel is
// closed when ctx ends or the view model closes.
func (p *Pipeline) Observe(ctx context.Context) <-chan Snapshot {
	select {
	case p.attach <- struct{}{}:
	case <-p.done:
		ch := make(chan Snapshot)
		close(ch)
		return ch
	}

	ch := p.latest.Observe(ctx)
	context.AfterFunc(ctx, func() {
		select {
		case p.detach <- struct{}{}:
		case <-p.done:
		}
	})
	return ch
}

// Status returns the current subscription state.
func (p *Pipeline) Status() Status {
	return p.status.Get()
}

// ObserveStatus returns the subscription state and every transition.
func (p *Pipeline) ObserveStatus(ctx context.Context) <-chan Status {
	return p.status.Observe(ctx)
}

func (p *Pipeline) setState(s State, c types.SortCriterion) {
	if p.status.Set(Status{State: s, Criterion: c}) {
		p.log.Debug("pipeline state", zap.Stringer("state", s), zap.Stringer("criterion", c))
	}
}

// run is the owner loop. It returns when ctx ends, after closing any open
// subscription.
func (p *Pipeline) run(ctx context.Context) {
	defer close(p.done)

	criteria := p.selector.Observe(ctx)
	criterion := p.selector.Current()

	var (
		sub       *subscription
		observers int
		graceT    clock.Timer
		graceC    <-chan time.Time
		contacts  = []types.Contact{}
	)

	stopGrace := func() {
		if graceT != nil {
			graceT.Stop()
			graceT, graceC = nil, nil
		}
	}

	open := func() {
		p.closeSubscription(sub)
		sub = p.openSubscription(ctx, criterion)
	}

	defer func() {
		stopGrace()
		p.closeSubscription(sub)
		p.setState(Unsubscribed, criterion)
	}()

	for {
		var results <-chan types.QueryResult
		if sub != nil {
			results = sub.results
		}

		select {
		case <-ctx.Done():
			return

		case c, ok := <-criteria:
			if !ok {
				return
			}
			if c == criterion {
				continue
			}
			criterion = c
			// An unobserved pipeline with nothing open waits for the next
			// observer instead of querying now.
			if sub != nil || observers > 0 {
				open()
			}

		case <-p.attach:
			observers++
			stopGrace()
			if sub == nil {
				open()
			}

		case <-p.detach:
			observers--
			if observers == 0 && sub != nil {
				graceT = p.clock.NewTimer(p.grace)
				graceC = graceT.C()
				p.log.Debug("grace period started", zap.Duration("grace", p.grace))
			}

		case <-graceC:
			graceT, graceC = nil, nil
			if observers == 0 {
				p.log.Debug("grace period elapsed, closing live query")
				p.closeSubscription(sub)
				sub = nil
				p.setState(Unsubscribed, criterion)
			}

		case r, ok := <-results:
			if !ok {
				p.log.Debug("live query ended", zap.Stringer("criterion", sub.criterion))
				sub.cancel()
				sub = nil
				p.setState(Unsubscribed, criterion)
				continue
			}
			if r.Err != nil {
				p.log.Warn("live query failed", zap.Stringer("criterion", sub.criterion), zap.Error(r.Err))
				p.latest.Set(Snapshot{Criterion: sub.criterion, Contacts: contacts, Err: r.Err})
				p.closeSubscription(sub)
				sub = nil
				p.setState(Unsubscribed, criterion)
				continue
			}
			contacts = r.Contacts
			if contacts == nil {
				contacts = []types.Contact{}
			}
			p.latest.Set(Snapshot{Criterion: sub.criterion, Contacts: contacts})
			p.setState(Subscribed, sub.criterion)
		}
	}
}

// openSubscription starts a store query for c.
func (p *Pipeline) openSubscription(ctx context.Context, c types.SortCriterion) *subscription {
	p.setState(Subscribing, c)
	qctx, cancel := context.WithCancel(ctx)
	return &subscription{
		criterion: c,
		results:   p.store.QueryOrderedBy(qctx, c),
		cancel:    cancel,
	}
}

// closeSubscription cancels sub and waits for the store to close its
// channel, so a following open never overlaps it.
func (p *Pipeline) closeSubscription(sub *subscription) {
	if sub == nil {
		return
	}
	sub.cancel()
	for range sub.results {
	}
}

func (p *Pipeline) close() {
	p.latest.Close()
	p.status.Close()
}
