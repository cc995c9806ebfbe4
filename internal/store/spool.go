package store

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var storeTracer = otel.Tracer("github.com/chris-regnier/licverify/internal/store")

// Spool stages files under a directory. An empty dir means os.TempDir().
type Spool struct {
	dir string
}

func NewSpool(dir string) *Spool {
	return &Spool{dir: dir}
}

// Staged is a spooled file positioned at its start. Close removes it.
type Staged struct {
	file    *os.File
	size    int64
	modTime time.Time
}

// Stage creates a temp file named by pattern (see os.CreateTemp), fills it
// with write and rewinds it. On failure nothing is left on disk.
func (s *Spool) Stage(ctx context.Context, pattern string, write func(io.Writer) error) (*Staged, error) {
	_, span := storeTracer.Start(ctx, "stage file")
	defer span.End()

	fail := func(f *os.File, err error) (*Staged, error) {
		if f != nil {
			f.Close()
			os.Remove(f.Name())
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if s.dir != "" {
		if err := os.MkdirAll(s.dir, 0755); err != nil {
			return fail(nil, err)
		}
	}
	f, err := os.CreateTemp(s.dir, pattern)
	if err != nil {
		return fail(nil, err)
	}

	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		return fail(f, err)
	}
	if err := bw.Flush(); err != nil {
		return fail(f, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fail(f, err)
	}
	info, err := f.Stat()
	if err != nil {
		return fail(f, err)
	}

	span.SetAttributes(
		attribute.String("licverify.spool.path", f.Name()),
		attribute.Int64("licverify.spool.bytes", info.Size()),
	)
	return &Staged{file: f, size: info.Size(), modTime: info.ModTime()}, nil
}

// Content returns the staged bytes as a seekable reader.
func (st *Staged) Content() io.ReadSeeker { return st.file }

func (st *Staged) Path() string { return st.file.Name() }

func (st *Staged) Size() int64 { return st.size }

func (st *Staged) ModTime() time.Time { return st.modTime }

// Close closes and deletes the staged file. It is safe to call more than once.
func (st *Staged) Close() error {
	if st == nil || st.file == nil {
		return nil
	}
	closeErr := st.file.Close()
	if errors.Is(closeErr, os.ErrClosed) {
		closeErr = nil
	}
	removeErr := os.Remove(st.file.Name())
	if errors.Is(removeErr, os.ErrNotExist) {
		removeErr = nil
	}
	return errors.Join(closeErr, removeErr)
}
