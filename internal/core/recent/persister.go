package recent

import "context"

// Persister mirrors a ledger to durable storage. The ledger always hands it
// the full sequence, never a delta.
type Persister interface {
	// Load returns the stored sequence, or nil if nothing is stored.
	Load(ctx context.Context) ([]string, error)
	// Save replaces the stored sequence with entries.
	Save(ctx context.Context, entries []string) error
	// Erase removes the stored representation entirely. Erasing when nothing
	// is stored is not an error.
	Erase(ctx context.Context) error
}
