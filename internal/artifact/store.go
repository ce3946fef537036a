package artifact

import (
	"context"
	"errors"
	"time"

	"github.com/framehaus/siteforge/internal/engine"
)

// ErrNotFound is returned when no artifact matches the given reference.
var ErrNotFound = errors.New("artifact: not found")

// Artifact is one stored generation output.
type Artifact struct {
	ID        string
	Key       string // projection target key the artifact was produced for
	Class     engine.PriorityClass
	Payload   []byte // JSON-encoded producer output
	CreatedAt time.Time
}

// Store persists artifacts and serves them back. Save satisfies
// engine.Persister, so a Store can be handed directly to the batch executor.
type Store interface {
	engine.Persister
	Get(ctx context.Context, ref string) (*Artifact, error)
	ListByKey(ctx context.Context, key string) ([]Artifact, error)
	Close() error
}
