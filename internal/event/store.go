package event

import "context"

// Store describes persistence operations for event records.
//
// Update runs the mutator inside an exclusive per-event critical section: two
// concurrent Updates against the same event are serialized, Updates against
// different events are not. A mutator error aborts the mutation and is
// returned unchanged. Get and List return consistent snapshots, never a
// partially applied mutation.
type Store interface {
	Insert(ctx context.Context, ev *Event) error
	Get(ctx context.Context, id string) (*Event, error)
	List(ctx context.Context) ([]Event, error)
	Update(ctx context.Context, id string, mutate func(*Event) error) (*Event, error)
	Delete(ctx context.Context, id string) error
}
