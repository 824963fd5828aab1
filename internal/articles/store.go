package articles

import "context"

// Store persists the article list as one JSON document. Load returns the
// current list plus an opaque revision handle; Save must be given that
// handle back so a concurrent edit cannot be clobbered. Backends without
// revision tracking (the local file) use an empty handle.
type Store interface {
	Load(ctx context.Context) ([]Article, string, error)
	Save(ctx context.Context, list []Article, rev string) error
}
