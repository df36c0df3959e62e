package viewmodel

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/mesh-intelligence/contactbook/internal/clock"
	"github.com/mesh-intelligence/contactbook/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	wait  = 2 * time.Second
	tick  = time.Millisecond
	grace = 5 * time.Second
)

// newTestViewModel builds a view model on a manual clock and closes it
// when the test ends.
func newTestViewModel(t *testing.T, store types.ContactStore) (*ViewModel, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	vm, err := New(store, Config{GracePeriod: grace, Clock: clk}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { vm.Close() })
	return vm, clk
}

// await receives from ch until ok accepts a value.
func await[T any](t *testing.T, ch <-chan T, ok func(T) bool) T {
	t.Helper()
	deadline := time.After(wait)
	for {
		select {
		case v, open := <-ch:
			require.True(t, open, "channel closed while waiting")
			if ok(v) {
				return v
			}
		case <-deadline:
			t.Fatal("timed out waiting for a matching value")
		}
	}
}

func names(contacts []types.Contact) []string {
	out := make([]string, len(contacts))
	for i, c := range contacts {
		out[i] = c.FullName()
	}
	return out
}

func awaitStatus(t *testing.T, p *Pipeline, want Status) {
	t.Helper()
	require.Eventually(t, func() bool { return p.Status() == want }, wait, tick,
		"pipeline status never reached %v", want)
}

func TestSortSelector_SetSameIsNoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewSortSelector(types.ByPhoneNumber)
	ch := s.Observe(ctx)
	assert.Equal(t, types.ByPhoneNumber, <-ch)

	s.Set(types.ByPhoneNumber)
	select {
	case v := <-ch:
		t.Fatalf("unexpected emission %v", v)
	case <-time.After(20 * time.Millisecond):
	}

	s.Set(types.ByLastName)
	assert.Equal(t, types.ByLastName, <-ch)
	assert.Equal(t, types.ByLastName, s.Current())
	s.close()
}

func TestPipeline_InitialEmptyThenListing(t *testing.T) {
	store := newFakeStore(types.Contact{FirstName: "Ada", LastName: "L", PhoneNumber: "1"})
	store.queryGate = make(chan struct{})
	vm, _ := newTestViewModel(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := vm.Pipeline().Observe(ctx)

	first := <-ch
	assert.NotNil(t, first.Contacts)
	assert.Empty(t, first.Contacts)
	close(store.queryGate)

	got := await(t, ch, func(s Snapshot) bool { return len(s.Contacts) == 1 })
	assert.Equal(t, types.ByPhoneNumber, got.Criterion)
	assert.NoError(t, got.Err)
	awaitStatus(t, vm.Pipeline(), Status{State: Subscribed, Criterion: types.ByPhoneNumber})
}

func TestPipeline_NoQueryWithoutObservers(t *testing.T) {
	store := newFakeStore()
	vm, _ := newTestViewModel(t, store)

	vm.Dispatch(types.SortContacts{Criterion: types.ByFirstName})
	vm.Dispatch(types.SortContacts{Criterion: types.ByLastName})
	time.Sleep(20 * time.Millisecond)

	_, _, queries := store.stats()
	assert.Zero(t, queries)
	assert.Equal(t, Unsubscribed, vm.Pipeline().Status().State)
}

func TestPipeline_AtMostOneSubscription(t *testing.T) {
	store := newFakeStore(
		types.Contact{FirstName: "B", LastName: "Y", PhoneNumber: "1"},
		types.Contact{FirstName: "A", LastName: "Z", PhoneNumber: "2"},
	)
	vm, _ := newTestViewModel(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	states := vm.Observe(ctx)
	await(t, states, func(s types.ViewState) bool { return len(s.Contacts) == 2 })

	const changes = 59
	for i := 0; i < changes; i++ {
		vm.Dispatch(types.SortContacts{Criterion: types.SortCriteria[i%len(types.SortCriteria)]})
	}
	final := types.SortCriteria[(changes-1)%len(types.SortCriteria)]
	require.NotEqual(t, types.ByPhoneNumber, final)
	awaitStatus(t, vm.Pipeline(), Status{State: Subscribed, Criterion: final})

	active, maxActive, queries := store.stats()
	assert.Equal(t, 1, active)
	assert.Equal(t, 1, maxActive, "store subscriptions overlapped")
	assert.Greater(t, queries, 1)
	assert.Equal(t, final, store.lastOpened())
}

func TestPipeline_PhoneToFirstNameOrder(t *testing.T) {
	store := newFakeStore(
		types.Contact{FirstName: "B", LastName: "Y", PhoneNumber: "1"},
		types.Contact{FirstName: "A", LastName: "Z", PhoneNumber: "2"},
	)
	vm, _ := newTestViewModel(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	states := vm.Observe(ctx)

	byPhone := await(t, states, func(s types.ViewState) bool { return len(s.Contacts) == 2 })
	assert.Equal(t, []string{"B Y", "A Z"}, names(byPhone.Contacts))

	vm.Dispatch(types.SortContacts{Criterion: types.ByFirstName})
	byFirst := await(t, states, func(s types.ViewState) bool {
		return s.SortCriterion == types.ByFirstName && len(s.Contacts) == 2 && s.Contacts[0].FirstName == "A"
	})
	if diff := cmp.Diff([]string{"A Z", "B Y"}, names(byFirst.Contacts)); diff != "" {
		t.Errorf("listing mismatch (-want +got):\n%s", diff)
	}
}

func TestPipeline_GraceWindow(t *testing.T) {
	store := newFakeStore()
	vm, clk := newTestViewModel(t, store)
	p := vm.Pipeline()

	ctx1, cancel1 := context.WithCancel(context.Background())
	<-p.Observe(ctx1)
	awaitStatus(t, p, Status{State: Subscribed, Criterion: types.ByPhoneNumber})

	// Last observer leaves: the grace timer starts, the query stays open.
	cancel1()
	require.Eventually(t, func() bool { return clk.Pending() == 1 }, wait, tick)
	clk.Advance(grace / 2)

	// Reattach inside the window reuses the open query.
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	snap := <-p.Observe(ctx2)
	assert.NotNil(t, snap.Contacts)
	require.Eventually(t, func() bool { return clk.Pending() == 0 }, wait, tick)

	active, _, queries := store.stats()
	assert.Equal(t, 1, active)
	assert.Equal(t, 1, queries, "reattach inside the grace window re-queried")

	// Leaving again and letting the window pass tears the query down.
	cancel2()
	require.Eventually(t, func() bool { return clk.Pending() == 1 }, wait, tick)
	clk.Advance(grace)
	awaitStatus(t, p, Status{State: Unsubscribed, Criterion: types.ByPhoneNumber})
	require.Eventually(t, func() bool {
		active, _, _ := store.stats()
		return active == 0
	}, wait, tick)

	// A later observer opens a fresh query.
	ctx3, cancel3 := context.WithCancel(context.Background())
	defer cancel3()
	<-p.Observe(ctx3)
	awaitStatus(t, p, Status{State: Subscribed, Criterion: types.ByPhoneNumber})
	_, _, queries = store.stats()
	assert.Equal(t, 2, queries)
}

func TestPipeline_StoreFailureNotRetried(t *testing.T) {
	boom := errors.New("disk on fire")
	store := newFakeStore(types.Contact{FirstName: "A", LastName: "B", PhoneNumber: "1"})
	store.queryErr = boom
	vm, _ := newTestViewModel(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	states := vm.Observe(ctx)

	failed := await(t, states, func(s types.ViewState) bool { return s.Err != nil })
	assert.ErrorIs(t, failed.Err, boom)
	assert.Empty(t, failed.Contacts)
	awaitStatus(t, vm.Pipeline(), Status{State: Unsubscribed, Criterion: types.ByPhoneNumber})

	time.Sleep(20 * time.Millisecond)
	_, _, queries := store.stats()
	assert.Equal(t, 1, queries, "failed query was retried")

	// A criterion change opens a new query.
	store.mu.Lock()
	store.queryErr = nil
	store.mu.Unlock()
	vm.Dispatch(types.SortContacts{Criterion: types.ByLastName})
	healed := await(t, states, func(s types.ViewState) bool { return s.Err == nil && len(s.Contacts) == 1 })
	assert.Equal(t, types.ByLastName, healed.SortCriterion)
}
