package repository

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Dan9191/outbreak-estimator/internal/models"
)

const fieldSep = "\t\t"

// FileStore keeps the request log in a plain-text file, one entry per line:
// method, path, status, latency and an RFC 3339 timestamp separated by double tabs.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a store backed by the file at path. The file is created on first append.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Append writes entry to the end of the file
func (s *FileStore) Append(_ context.Context, entry *models.RequestLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open request log: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(formatLine(entry) + "\n"); err != nil {
		return fmt.Errorf("failed to append request log: %w", err)
	}
	return nil
}

// List returns every entry in file order. A missing file is an empty log.
func (s *FileStore) List(_ context.Context) ([]models.RequestLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.read()
}

// Prune rewrites the file without the entries created before the given time
func (s *FileStore) Prune(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return 0, err
	}

	var b strings.Builder
	var removed int64
	for i := range entries {
		if entries[i].CreatedAt.Before(before) {
			removed++
			continue
		}
		b.WriteString(formatLine(&entries[i]))
		b.WriteByte('\n')
	}
	if removed == 0 {
		return 0, nil
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(b.String()), 0o644); err != nil {
		return 0, fmt.Errorf("failed to write pruned request log: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return 0, fmt.Errorf("failed to replace request log: %w", err)
	}
	return removed, nil
}

// Close is a no-op; the file is opened per append
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) read() ([]models.RequestLog, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open request log: %w", err)
	}
	defer f.Close()

	var entries []models.RequestLog
	scanner := bufio.NewScanner(f)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := scanner.Text()
		if line == "" {
			continue
		}
		entry, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("request log line %d: %w", lineNo, err)
		}
		entry.ID = int64(lineNo)
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read request log: %w", err)
	}
	return entries, nil
}

func formatLine(entry *models.RequestLog) string {
	return entry.String() + fieldSep + entry.CreatedAt.UTC().Format(time.RFC3339Nano)
}

func parseLine(line string) (models.RequestLog, error) {
	fields := strings.Split(line, fieldSep)
	if len(fields) != 5 {
		return models.RequestLog{}, fmt.Errorf("want 5 fields, got %d", len(fields))
	}

	status, err := strconv.Atoi(fields[2])
	if err != nil {
		return models.RequestLog{}, fmt.Errorf("invalid status %q: %w", fields[2], err)
	}
	latency, err := time.ParseDuration(fields[3])
	if err != nil {
		return models.RequestLog{}, fmt.Errorf("invalid latency %q: %w", fields[3], err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, fields[4])
	if err != nil {
		return models.RequestLog{}, fmt.Errorf("invalid timestamp %q: %w", fields[4], err)
	}

	return models.RequestLog{
		Method:    fields[0],
		Path:      fields[1],
		Status:    status,
		Latency:   latency,
		CreatedAt: createdAt,
	}, nil
}
