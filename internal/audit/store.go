package audit

import "context"

// Store is an append-only event sink with bounded reads for the UI.
type Store interface {
	Append(ctx context.Context, event Event) error
	Recent(ctx context.Context, limit int) ([]Event, error)
}
