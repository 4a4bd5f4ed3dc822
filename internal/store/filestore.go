package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/chris-regnier/chisel/internal/sarif"
)

var storeTracer = otel.Tracer("github.com/chris-regnier/chisel/internal/store")

var _ Store = (*FileStore)(nil)

// FileStore keeps each run in its own directory named by a sortable ID:
// <dir>/<id>/sarif.json and <dir>/<id>/verdict.json.
type FileStore struct {
	dir string
	now func() time.Time
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir, now: time.Now}
}

func (s *FileStore) generateID() string {
	b := make([]byte, 3)
	rand.Read(b)
	ts := s.now().UTC().Format("2006-01-02T15-04-05Z")
	return fmt.Sprintf("%s-%s", ts, hex.EncodeToString(b))
}

// Path returns the path of a file stored alongside run id.
func (s *FileStore) Path(id, name string) string {
	return filepath.Join(s.dir, id, name)
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func (s *FileStore) writeJSON(id, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.Path(id, name), data, 0644)
}

func (s *FileStore) readJSON(id, name string, v any) error {
	data, err := os.ReadFile(s.Path(id, name))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s for %s: %w", name, id, err)
	}
	return nil
}

func (s *FileStore) WriteSARIF(ctx context.Context, doc *sarif.Log) (string, error) {
	_, span := storeTracer.Start(ctx, "write sarif")
	defer span.End()

	id := s.generateID()
	if err := os.MkdirAll(filepath.Join(s.dir, id), 0755); err != nil {
		return "", fail(span, err)
	}
	if err := s.writeJSON(id, "sarif.json", doc); err != nil {
		return "", fail(span, err)
	}

	span.SetAttributes(
		attribute.String("chisel.store.id", id),
		attribute.Int("chisel.store.result_count", len(doc.Results())),
	)
	return id, nil
}

func (s *FileStore) WriteVerdict(ctx context.Context, sarifID string, verdict *Verdict) error {
	_, span := storeTracer.Start(ctx, "write verdict")
	defer span.End()

	if err := s.writeJSON(sarifID, "verdict.json", verdict); err != nil {
		return fail(span, err)
	}
	span.SetAttributes(
		attribute.String("chisel.store.id", sarifID),
		attribute.String("chisel.decision", verdict.Decision),
	)
	return nil
}

func (s *FileStore) ReadSARIF(ctx context.Context, id string) (*sarif.Log, error) {
	var log sarif.Log
	if err := s.readJSON(id, "sarif.json", &log); err != nil {
		return nil, err
	}
	return &log, nil
}

func (s *FileStore) ReadVerdict(ctx context.Context, sarifID string) (*Verdict, error) {
	var v Verdict
	if err := s.readJSON(sarifID, "verdict.json", &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// List returns stored run IDs, newest first.
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))
	return ids, nil
}

// Latest returns the newest stored run ID.
func (s *FileStore) Latest(ctx context.Context) (string, error) {
	ids, err := s.List(ctx)
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", fmt.Errorf("%s: %w", s.dir, ErrNoResults)
	}
	return ids[0], nil
}
