// Package store stages generated files on disk for the lifetime of a single
// request.
package store

import (
	"context"
	"io"
)

// Stager writes a generated file to scratch storage and hands it back for
// streaming. The caller must Close the result.
type Stager interface {
	Stage(ctx context.Context, pattern string, write func(io.Writer) error) (*Staged, error)
}
