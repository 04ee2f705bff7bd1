package presenter

import (
	"context"
	"fmt"
	"os"

	"github.com/couchcryptid/quake-trends-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/quake-trends-etl/internal/domain"
)

// Backend is a source the dashboard can load its dataset from.
type Backend interface {
	Name() string
	// Version changes whenever the data behind Load changes.
	Version(ctx context.Context) (string, error)
	Load(ctx context.Context) ([]domain.Event, error)
}

// FileBackend reads the CSV file written by the ingest command.
type FileBackend struct {
	path string
}

// NewFileBackend creates a backend for the CSV file at path.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

func (b *FileBackend) Name() string { return "file" }

// Version is derived from the file's modification time and size.
func (b *FileBackend) Version(_ context.Context) (string, error) {
	fi, err := os.Stat(b.path)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("mtime=%d size=%d", fi.ModTime().UnixNano(), fi.Size()), nil
}

func (b *FileBackend) Load(_ context.Context) ([]domain.Event, error) {
	return csvfile.ReadFile(b.path)
}

// EventStore is the read side of the relational store.
type EventStore interface {
	LoadAll(ctx context.Context) ([]domain.Event, error)
	Version(ctx context.Context) (string, error)
}

// StoreBackend reads the relational table.
type StoreBackend struct {
	store EventStore
}

// NewStoreBackend creates a backend over a relational store.
func NewStoreBackend(store EventStore) *StoreBackend {
	return &StoreBackend{store: store}
}

func (b *StoreBackend) Name() string { return "store" }

func (b *StoreBackend) Version(ctx context.Context) (string, error) {
	return b.store.Version(ctx)
}

func (b *StoreBackend) Load(ctx context.Context) ([]domain.Event, error) {
	return b.store.LoadAll(ctx)
}
