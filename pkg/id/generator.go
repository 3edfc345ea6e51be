// Package id generates identifiers for runs, nodes and columns.
package id

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generate returns a new random UUID, used for run ids.
func Generate() string {
	return uuid.New().String()
}

// GenerateShort returns the first 8 characters of a new UUID.
func GenerateShort() string {
	return uuid.New().String()[:8]
}

// NewSequence returns a generator of ids "<prefix>-1", "<prefix>-2", ...
// Each generator is safe for concurrent use.
func NewSequence(prefix string) func() string {
	var n atomic.Int64
	return func() string {
		return prefix + "-" + strconv.FormatInt(n.Add(1), 10)
	}
}

// NewScoped returns a sequence generator whose prefix embeds a short UUID,
// so ids from different runs never collide.
func NewScoped(prefix string) func() string {
	return NewSequence(prefix + "-" + GenerateShort())
}
