// Command validate checks an ingested CSV file end to end: the header and
// per-record sanity, a round trip through a scratch SQLite store, and that
// every dashboard query gives the same result in SQL as in memory.
//
// Usage:
//
//	go run ./cmd/validate -csv raw_earthquake_data.csv
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/google/go-cmp/cmp"

	"github.com/couchcryptid/quake-trends-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/quake-trends-etl/internal/adapter/sqlstore"
	"github.com/couchcryptid/quake-trends-etl/internal/catalog"
	"github.com/couchcryptid/quake-trends-etl/internal/domain"
)

// maxErrors caps the detail kept per phase.
const maxErrors = 20

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
	hidden int
}

func (p *phase) errorf(format string, args ...any) {
	if len(p.errors) >= maxErrors {
		p.hidden++
		return
	}
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	csvPath := flag.String("csv", "raw_earthquake_data.csv", "CSV file written by the ingest command")
	tolerance := flag.Float64("tolerance", 1e-9, "allowed difference between numeric cells")
	flag.Parse()

	if code := run(*csvPath, *tolerance); code != 0 {
		os.Exit(code)
	}
}

func run(csvPath string, tol float64) int {
	fmt.Println("=== Earthquake Data Validation ===")
	fmt.Println()

	header, err := readHeader(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read header: %v\n", err)
		return 1
	}
	events, err := csvfile.ReadFile(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load CSV: %v\n", err)
		return 1
	}

	dir, err := os.MkdirTemp("", "quake-validate-")
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: scratch dir: %v\n", err)
		return 1
	}
	defer os.RemoveAll(dir)

	ctx := context.Background()
	store, err := sqlstore.Open(ctx, "sqlite", filepath.Join(dir, "validate.db"), sqlstore.Options{},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open scratch store: %v\n", err)
		return 1
	}
	defer store.Close()

	phases := []*phase{
		validateHeader(header),
		validateRecords(events),
		validateRoundTrip(ctx, store, events),
		validateEngineParity(ctx, store, events, tol),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors)+p.hidden)
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d\n", len(events))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
		if p.hidden > 0 {
			fmt.Printf("  ... and %d more\n", p.hidden)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func readHeader(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header, err := csv.NewReader(f).Read()
	if err == io.EOF {
		return nil, nil
	}
	return header, err
}

// validateHeader checks the column set and order.
func validateHeader(header []string) *phase {
	p := &phase{name: "Phase 1: CSV header"}
	fmt.Println("Phase 1: checking CSV header...")

	if header == nil {
		p.errorf("file is empty")
		return p
	}
	if !slices.Equal(header, domain.Columns) {
		p.errorf("header mismatch (-want +got):\n%s", cmp.Diff(domain.Columns, header))
	}
	return p
}

// validateRecords checks each record for values outside their physical range.
func validateRecords(events []domain.Event) *phase {
	p := &phase{name: "Phase 2: Record sanity"}
	fmt.Println("Phase 2: checking records...")

	seen := make(map[string]int, len(events))
	for i, e := range events {
		line := i + 2
		if e.ID == "" {
			p.errorf("line %d: empty id", line)
		}
		if first, ok := seen[e.ID]; ok && e.ID != "" {
			p.errorf("line %d: id %s already on line %d", line, e.ID, first)
		} else {
			seen[e.ID] = line
		}
		if e.Time == nil {
			p.errorf("line %d: id %s has no time", line, e.ID)
		}
		if e.Latitude != nil && (*e.Latitude < -90 || *e.Latitude > 90) {
			p.errorf("line %d: latitude %v out of range", line, *e.Latitude)
		}
		if e.Longitude != nil && (*e.Longitude < -180 || *e.Longitude > 180) {
			p.errorf("line %d: longitude %v out of range", line, *e.Longitude)
		}
		if e.Tsunami != nil && *e.Tsunami != 0 && *e.Tsunami != 1 {
			p.errorf("line %d: tsunami flag %d is not 0 or 1", line, *e.Tsunami)
		}
		if e.Status != nil && *e.Status != "reviewed" && *e.Status != "automatic" {
			p.errorf("line %d: unexpected status %q", line, *e.Status)
		}
	}
	return p
}

// validateRoundTrip writes the records to the scratch store and reads them back.
func validateRoundTrip(ctx context.Context, store *sqlstore.Store, events []domain.Event) *phase {
	p := &phase{name: "Phase 3: Store round trip"}
	fmt.Println("Phase 3: loading records into a scratch SQLite store...")

	if err := store.Write(ctx, events); err != nil {
		p.errorf("write: %v", err)
		return p
	}
	got, err := store.LoadAll(ctx)
	if err != nil {
		p.errorf("load: %v", err)
		return p
	}
	if len(got) != len(events) {
		p.errorf("row count: wrote %d, read %d", len(events), len(got))
		return p
	}
	for i := range events {
		if diff := cmp.Diff(events[i], got[i]); diff != "" {
			p.errorf("record %s (-csv +store):\n%s", events[i].ID, diff)
		}
	}
	return p
}

// validateEngineParity runs every catalog query in SQL and in memory.
func validateEngineParity(ctx context.Context, store *sqlstore.Store, events []domain.Event, tol float64) *phase {
	p := &phase{name: "Phase 4: SQL and in-memory parity"}
	fmt.Println("Phase 4: comparing catalog results across engines...")

	frame := domain.NewFrame(events)
	for _, q := range catalog.List() {
		want := catalog.Run(q, frame)
		got, err := store.Query(ctx, q)
		if err != nil {
			p.errorf("query %d (%s): %v", q.ID, q.Title, err)
			continue
		}
		if err := catalog.Equivalent(want, got, tol); err != nil {
			p.errorf("query %d (%s): %v", q.ID, q.Title, err)
		}
	}
	return p
}
