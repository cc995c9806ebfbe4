package store

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"
)

var _ Stager = (*Spool)(nil)

func TestSpool_StageAndClose(t *testing.T) {
	dir := t.TempDir()
	s := NewSpool(dir)

	staged, err := s.Stage(context.Background(), "batch-*.xlsx", func(w io.Writer) error {
		_, err := io.WriteString(w, "workbook bytes")
		return err
	})
	if err != nil {
		t.Fatal(err)
	}

	if staged.Size() != int64(len("workbook bytes")) {
		t.Errorf("expected size %d, got %d", len("workbook bytes"), staged.Size())
	}
	data, err := io.ReadAll(staged.Content())
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "workbook bytes" {
		t.Errorf("unexpected content %q", data)
	}
	if _, err := os.Stat(staged.Path()); err != nil {
		t.Fatalf("staged file should exist before Close: %v", err)
	}

	if err := staged.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(staged.Path()); !os.IsNotExist(err) {
		t.Errorf("staged file should be removed after Close, stat err = %v", err)
	}
	if err := staged.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
}

func TestSpool_WriteFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	s := NewSpool(dir)
	boom := errors.New("boom")

	_, err := s.Stage(context.Background(), "batch-*.xlsx", func(w io.Writer) error {
		io.WriteString(w, "partial")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty spool dir, found %d entries", len(entries))
	}
}

func TestSpool_CreatesDir(t *testing.T) {
	dir := t.TempDir() + "/nested/spool"
	staged, err := NewSpool(dir).Stage(context.Background(), "x-*", func(w io.Writer) error { return nil })
	if err != nil {
		t.Fatal(err)
	}
	defer staged.Close()
	if staged.Size() != 0 {
		t.Errorf("expected empty file, got %d bytes", staged.Size())
	}
}
