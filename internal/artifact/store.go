// Package artifact persists rendered plot images under unique names and
// evicts them once they age out.
package artifact

import (
	"context"
	"encoding/hex"
	"errors"
	"io"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no artifact exists under a name.
var ErrNotFound = errors.New("artifact not found")

// ContentType of every stored artifact.
const ContentType = "image/png"

var namePattern = regexp.MustCompile(`^plot_[0-9a-f]{32}\.png$`)

// Store keeps plot images.
type Store interface {
	// Put stores size bytes from r under name.
	Put(ctx context.Context, name string, r io.Reader, size int64) error
	// Open returns the artifact's content or ErrNotFound.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Sweep removes artifacts last modified before cutoff and returns how
	// many were removed.
	Sweep(ctx context.Context, cutoff time.Time) (int, error)
}

// NewName returns a fresh artifact name, plot_<32 hex>.png.
func NewName() string {
	id := uuid.New()
	return "plot_" + hex.EncodeToString(id[:]) + ".png"
}

// ValidName reports whether name could have come from NewName. Stores
// refuse anything else, which also keeps path traversal out.
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}
