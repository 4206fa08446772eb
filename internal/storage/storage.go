package storage

import (
	"context"
	"time"
)

// Store is the object storage contract the pipeline depends on. Put must
// overwrite silently when the key exists so that resubmitting a job is safe.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// SignURL returns a time-limited, publicly fetchable URL for the object
	// at key. The TTL must outlive the downstream description call.
	SignURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}
