// Package csvfile persists event records as a flat CSV file.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/jszwec/csvutil"

	"github.com/couchcryptid/quake-trends-etl/internal/domain"
)

// ErrRemoveDenied is returned when a previous output file exists and cannot be removed.
var ErrRemoveDenied = errors.New("cannot remove existing csv file")

// Writer replaces the file at path with the given events on every write.
type Writer struct {
	path   string
	logger *slog.Logger
}

// NewWriter creates a CSV writer for path.
func NewWriter(path string, logger *slog.Logger) *Writer {
	return &Writer{path: path, logger: logger}
}

// Name identifies the sink in logs and metrics.
func (w *Writer) Name() string { return "csv" }

// Path returns the output file path.
func (w *Writer) Path() string { return w.path }

// Write removes any existing file, then writes a header row followed by one
// row per event in domain.Columns order. Nil fields are written as empty cells.
func (w *Writer) Write(ctx context.Context, events []domain.Event) error {
	if err := os.Remove(w.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w %s: %w", ErrRemoveDenied, w.path, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("create %s: %w", w.path, err)
	}

	if err := Encode(f, events); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", w.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", w.path, err)
	}

	w.logger.Info("csv written", "path", w.path, "rows", len(events))
	return nil
}

// Encode writes the header and all events as CSV.
func Encode(out io.Writer, events []domain.Event) error {
	cw := csv.NewWriter(out)
	enc := csvutil.NewEncoder(cw)
	enc.AutoHeader = false

	if err := enc.EncodeHeader(domain.Event{}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	for i := range events {
		if err := enc.Encode(events[i]); err != nil {
			return fmt.Errorf("encode row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// lenientNumbers turns numeric cells that do not parse into nil instead of
// failing the whole file, and reads integral floats ("12.0") as integers.
var lenientNumbers = csvutil.NewUnmarshalers(
	csvutil.UnmarshalFunc(func(data []byte, v **int64) error {
		*v = domain.ParseInt(string(data))
		return nil
	}),
	csvutil.UnmarshalFunc(func(data []byte, v **float64) error {
		*v = domain.ParseFloat(string(data))
		return nil
	}),
)

// Decode reads every record from a CSV stream with a header row. Columns are
// matched by name; unknown columns are ignored and missing ones stay nil.
// Numeric cells that cannot be parsed are nil.
func Decode(in io.Reader) ([]domain.Event, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(in))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	dec.WithUnmarshalers(lenientNumbers)

	var events []domain.Event
	for {
		var e domain.Event
		if err := dec.Decode(&e); err != nil {
			if errors.Is(err, io.EOF) {
				return events, nil
			}
			return nil, fmt.Errorf("decode line %d: %w", len(events)+2, err)
		}
		events = append(events, e)
	}
}

// ReadFile loads every record from the CSV file at path.
func ReadFile(path string) ([]domain.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	events, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return events, nil
}
