package feed

import (
	"context"
	"fmt"

	"messageboard-backend/internal/domains/post/model"
	"messageboard-backend/internal/infrastructure/changefeed"
)

// State is the lifecycle of a feed view. It only ever moves between
// Loading and one of the two terminal states of a fetch; a change-feed
// event sends it back to Loading.
type State int

const (
	StateLoading State = iota
	StateLoaded
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

func (s State) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", s.String())), nil
}

// Snapshot is one full rendering of the feed. Posts is always the
// complete list, never a delta: each reload replaces everything.
type Snapshot struct {
	State State           `json:"state"`
	Posts []model.PostDTO `json:"posts"`
	Err   string          `json:"error,omitempty"`
}

// Loader fetches the full post list. Implemented by the post service.
type Loader interface {
	List(ctx context.Context) ([]model.PostDTO, error)
}

// View is one live subscription to the feed. It holds exactly one
// change-feed subscription for its whole lifetime and emits a fresh
// Snapshot whenever anything mutates.
type View struct {
	out    chan Snapshot
	cancel context.CancelFunc
}

// Open subscribes to the change feed and starts the reload loop. The
// first two snapshots are always Loading followed by the initial fetch
// result. Close the view (or cancel ctx) to tear the subscription down.
func Open(ctx context.Context, broker changefeed.Broker, loader Loader) (*View, error) {
	sub, err := broker.Subscribe()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	v := &View{
		out:    make(chan Snapshot),
		cancel: cancel,
	}

	go v.run(ctx, sub, loader)
	return v, nil
}

// Snapshots delivers feed states in order. The channel closes when the
// view closes.
func (v *View) Snapshots() <-chan Snapshot {
	return v.out
}

// Close tears down the view and its change-feed subscription. Safe to
// call more than once.
func (v *View) Close() {
	v.cancel()
}

func (v *View) run(ctx context.Context, sub *changefeed.Subscription, loader Loader) {
	defer close(v.out)
	defer sub.Close()

	if !v.emit(ctx, Snapshot{State: StateLoading}) {
		return
	}
	if !v.reload(ctx, loader) {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-sub.Events():
			if !ok {
				return
			}
			// The event only says "something changed". Reconciliation is
			// a full refetch, so insert/update/delete all look the same
			// from here.
			if !v.emit(ctx, Snapshot{State: StateLoading}) {
				return
			}
			if !v.reload(ctx, loader) {
				return
			}
		}
	}
}

// reload fetches the full list and emits Loaded or Errored. An errored
// view is not stuck: the next change-feed event retries.
func (v *View) reload(ctx context.Context, loader Loader) bool {
	posts, err := loader.List(ctx)
	if err != nil {
		return v.emit(ctx, Snapshot{State: StateErrored, Err: err.Error()})
	}
	if posts == nil {
		posts = []model.PostDTO{}
	}
	return v.emit(ctx, Snapshot{State: StateLoaded, Posts: posts})
}

func (v *View) emit(ctx context.Context, snap Snapshot) bool {
	select {
	case v.out <- snap:
		return true
	case <-ctx.Done():
		return false
	}
}
