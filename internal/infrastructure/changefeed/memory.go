package changefeed

import "context"

// MemoryBroker is an in-process Broker. Used by tests and useful for
// single-instance deployments that do not run Redis.
type MemoryBroker struct {
	hub *hub
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{hub: newHub()}
}

func (b *MemoryBroker) Publish(_ context.Context, ev Event) error {
	b.hub.broadcast(ev)
	return nil
}

func (b *MemoryBroker) Subscribe() (*Subscription, error) {
	return b.hub.add(), nil
}

func (b *MemoryBroker) Close() error {
	b.hub.closeAll()
	return nil
}

// SubscriberCount reports the number of active subscriptions.
func (b *MemoryBroker) SubscriberCount() int {
	return b.hub.len()
}
