// Package csvstore persists record collections as CSV files, one file per
// record kind. Every read loads and parses the whole file; every mutation
// rewrites it atomically.
package csvstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/salesdesk/pkg/types"
)

// Schema describes a record kind to the generic Table. T is the record
// struct and I its creation input.
type Schema[T any, I any] struct {
	// Kind names the record kind in errors and log lines.
	Kind string
	// File is the CSV file name inside the data directory.
	File string
	// Columns lists the header in file order. Column names must match the
	// record's JSON field names.
	Columns []Column
	// IDPrefix is prepended to generated ids.
	IDPrefix string
	// Immutable lists fields that partial updates may not touch, in
	// addition to id, createdAt and updatedAt.
	Immutable []string
	// New builds a record from its input, applying defaults. The stamp
	// already carries the generated id and creation time.
	New func(in I, stamp types.Stamp) T
	// Stamp exposes the record's embedded Stamp.
	Stamp func(rec *T) *types.Stamp
	// Validate checks a fully built record.
	Validate func(rec T) error
}

// Option configures a Table.
type Option func(*options)

type options struct {
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator overrides id generation. The schema prefix still applies.
func WithIDGenerator(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

// WithLogger sets the logger that reports dropped rows.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Table is the generic record store for one kind. It is safe for
// concurrent use; mutations are serialized so that concurrent writers in
// one process never lose updates.
type Table[T any, I any] struct {
	schema    Schema[T, I]
	path      string
	columns   map[string]Column
	immutable map[string]bool

	now    func() time.Time
	newID  func() string
	logger *slog.Logger

	mu sync.Mutex
}

// New returns a Table storing records in dataDir/schema.File.
func New[T any, I any](dataDir string, schema Schema[T, I], opts ...Option) *Table[T, I] {
	o := options{now: time.Now, newID: generateUUID}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	t := &Table[T, I]{
		schema:    schema,
		path:      filepath.Join(dataDir, schema.File),
		columns:   make(map[string]Column, len(schema.Columns)),
		immutable: map[string]bool{"id": true, "createdAt": true, "updatedAt": true},
		now:       o.now,
		newID:     o.newID,
		logger:    o.logger.With("kind", schema.Kind),
	}
	for _, c := range schema.Columns {
		t.columns[c.Name] = c
	}
	for _, f := range schema.Immutable {
		t.immutable[f] = true
	}
	return t
}

// Kind returns the record kind name.
func (t *Table[T, I]) Kind() string { return t.schema.Kind }

// Path returns the backing file path.
func (t *Table[T, I]) Path() string { return t.path }

// Columns returns the header columns in file order.
func (t *Table[T, I]) Columns() []Column { return slices.Clone(t.schema.Columns) }

// Now returns the table's current time, normalized the way stored
// timestamps are.
func (t *Table[T, I]) Now() time.Time {
	return t.now().UTC().Round(0)
}

// FindAll returns every valid record in file order. Rows that fail
// coercion or validation are dropped and logged.
func (t *Table[T, I]) FindAll() ([]T, error) {
	header, rows, err := readCSV(t.path, func(line int, err error) {
		t.logger.Warn("dropping unparseable row", "line", line, "error", err)
	})
	if err != nil {
		return nil, err
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}

	records := make([]T, 0, len(rows))
	for _, row := range rows {
		rec, err := t.decode(func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(row.fields) {
				return ""
			}
			return row.fields[i]
		})
		if err != nil {
			t.logger.Warn("dropping invalid row", "line", row.line, "error", err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// FindByID returns the record with the given id or types.ErrNotFound.
func (t *Table[T, I]) FindByID(id string) (T, error) {
	var zero T
	if id == "" {
		return zero, types.ErrInvalidID
	}
	records, err := t.FindAll()
	if err != nil {
		return zero, err
	}
	if i := t.indexOf(records, id); i >= 0 {
		return records[i], nil
	}
	return zero, fmt.Errorf("%s %s: %w", t.schema.Kind, id, types.ErrNotFound)
}

// Filter returns the records matching pred, in file order.
func (t *Table[T, I]) Filter(pred func(T) bool) ([]T, error) {
	records, err := t.FindAll()
	if err != nil {
		return nil, err
	}
	out := records[:0]
	for _, r := range records {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Create builds, validates and appends a new record.
func (t *Table[T, I]) Create(in I) (T, error) {
	created, err := t.CreateMany([]I{in})
	if err != nil {
		var zero T
		return zero, err
	}
	return created[0], nil
}

// CreateMany appends several records with a single rewrite. Either all
// inputs are stored or none are.
func (t *Table[T, I]) CreateMany(ins []I) ([]T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	records, err := t.FindAll()
	if err != nil {
		return nil, err
	}
	created := make([]T, 0, len(ins))
	for _, in := range ins {
		now := t.Now()
		stamp := types.Stamp{ID: t.schema.IDPrefix + t.newID(), CreatedAt: now, UpdatedAt: now}
		rec, err := t.canonical(t.schema.New(in, stamp))
		if err != nil {
			return nil, err
		}
		created = append(created, rec)
	}
	if err := t.persist(append(records, created...)); err != nil {
		return nil, err
	}
	return created, nil
}

// Update merges a partial field set, keyed by JSON field name, over the
// stored record and refreshes updatedAt. Unknown and immutable fields are
// rejected.
func (t *Table[T, I]) Update(id string, fields map[string]any) (T, error) {
	var zero T
	for name := range fields {
		if _, ok := t.columns[name]; !ok {
			return zero, types.Invalid(t.schema.Kind, name, "unknown field")
		}
		if t.immutable[name] {
			return zero, types.Invalid(t.schema.Kind, name, "cannot be changed")
		}
	}

	return t.Mutate(id, func(rec *T) error {
		merged, err := overlay(*rec, fields)
		if err != nil {
			return types.Invalid(t.schema.Kind, "", err.Error())
		}
		*rec = merged
		return nil
	})
}

// Mutate applies fn to the stored record and persists the result. The
// record's id and createdAt are preserved whatever fn does; updatedAt is
// set to a time strictly after its previous value.
func (t *Table[T, I]) Mutate(id string, fn func(rec *T) error) (T, error) {
	var zero T
	if id == "" {
		return zero, types.ErrInvalidID
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	records, err := t.FindAll()
	if err != nil {
		return zero, err
	}
	i := t.indexOf(records, id)
	if i < 0 {
		return zero, fmt.Errorf("%s %s: %w", t.schema.Kind, id, types.ErrNotFound)
	}

	prev := *t.schema.Stamp(&records[i])
	next := records[i]
	if err := fn(&next); err != nil {
		return zero, err
	}
	stamp := t.schema.Stamp(&next)
	stamp.ID = prev.ID
	stamp.CreatedAt = prev.CreatedAt
	stamp.UpdatedAt = t.nextUpdate(prev.UpdatedAt)

	rec, err := t.canonical(next)
	if err != nil {
		return zero, err
	}
	records[i] = rec
	if err := t.persist(records); err != nil {
		return zero, err
	}
	return rec, nil
}

// Delete removes the record with the given id. It reports false, and
// leaves the file untouched, when no such record exists.
func (t *Table[T, I]) Delete(id string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	records, err := t.FindAll()
	if err != nil {
		return false, err
	}
	i := t.indexOf(records, id)
	if i < 0 {
		return false, nil
	}
	if err := t.persist(slices.Delete(records, i, i+1)); err != nil {
		return false, err
	}
	return true, nil
}

// Export returns the header and the encoded rows of every valid record.
func (t *Table[T, I]) Export() ([]string, [][]string, error) {
	records, err := t.FindAll()
	if err != nil {
		return nil, nil, err
	}
	rows, err := t.encodeAll(records)
	if err != nil {
		return nil, nil, err
	}
	return t.header(), rows, nil
}

func (t *Table[T, I]) indexOf(records []T, id string) int {
	for i := range records {
		if t.schema.Stamp(&records[i]).ID == id {
			return i
		}
	}
	return -1
}

func (t *Table[T, I]) nextUpdate(prev time.Time) time.Time {
	now := t.Now()
	if !now.After(prev) {
		return prev.Add(time.Microsecond)
	}
	return now
}

func (t *Table[T, I]) header() []string {
	names := make([]string, len(t.schema.Columns))
	for i, c := range t.schema.Columns {
		names[i] = c.Name
	}
	return names
}

// persist encodes the full record set before touching the file.
func (t *Table[T, I]) persist(records []T) error {
	rows, err := t.encodeAll(records)
	if err != nil {
		return err
	}
	if err := writeCSV(t.path, t.header(), rows); err != nil {
		return fmt.Errorf("writing %s: %w", t.schema.Kind, err)
	}
	return nil
}

func (t *Table[T, I]) encodeAll(records []T) ([][]string, error) {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		row, err := t.encode(rec)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// encode renders a record as one CSV row in column order.
func (t *Table[T, I]) encode(rec T) ([]string, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", t.schema.Kind, err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", t.schema.Kind, err)
	}
	row := make([]string, len(t.schema.Columns))
	for i, c := range t.schema.Columns {
		cell, err := c.encodeCell(fields[c.Name])
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", t.schema.Kind, err)
		}
		row[i] = cell
	}
	return row, nil
}

// decode coerces the cells returned by cell into a record and validates it.
func (t *Table[T, I]) decode(cell func(name string) string) (T, error) {
	var rec T
	fields := make(map[string]any, len(t.schema.Columns))
	for _, c := range t.schema.Columns {
		v, err := c.decodeCell(t.schema.Kind, cell(c.Name))
		if err != nil {
			return rec, err
		}
		fields[c.Name] = v
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return rec, types.Invalid(t.schema.Kind, "", err.Error())
	}
	if err := json.Unmarshal(b, &rec); err != nil {
		return rec, types.Invalid(t.schema.Kind, "", err.Error())
	}
	if err := t.schema.Validate(rec); err != nil {
		return rec, err
	}
	return rec, nil
}

// canonical passes a record through its text form so the value returned to
// callers is exactly what a later read produces.
func (t *Table[T, I]) canonical(rec T) (T, error) {
	row, err := t.encode(rec)
	if err != nil {
		var zero T
		return zero, err
	}
	return t.decode(func(name string) string {
		for i, c := range t.schema.Columns {
			if c.Name == name {
				return row[i]
			}
		}
		return ""
	})
}

// overlay shallow-merges fields over the JSON form of rec.
func overlay[T any](rec T, fields map[string]any) (T, error) {
	var out T
	b, err := json.Marshal(rec)
	if err != nil {
		return out, err
	}
	var m map[string]any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		return out, err
	}
	for k, v := range fields {
		m[k] = v
	}
	if b, err = json.Marshal(m); err != nil {
		return out, err
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, err
	}
	return out, nil
}

// generateUUID returns a UUID v7, falling back to v4.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
