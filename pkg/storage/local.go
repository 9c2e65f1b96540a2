package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalArchive keeps statements on the local filesystem:
//
//	<base>/<user>/<id-prefix>_<name>
//	<base>/<user>/.meta/<id>.json
type LocalArchive struct {
	basePath string
	now      func() time.Time
}

// NewLocalArchive creates the base directory if needed.
func NewLocalArchive(basePath string) (*LocalArchive, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &LocalArchive{basePath: basePath, now: time.Now}, nil
}

// Store implements Archive.
func (s *LocalArchive) Store(ctx context.Context, userID uuid.UUID, rec Record, r io.Reader) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	userDir := filepath.Join(s.basePath, userID.String())
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create user directory: %w", err)
	}

	stored := fmt.Sprintf("%s_%s", rec.ID.String()[:8], sanitizeFilename(rec.Name))
	filePath := filepath.Join(userDir, stored)

	f, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	hash := sha256.New()
	size, err := io.Copy(io.MultiWriter(f, hash), r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	rec.Size = size
	rec.SHA256 = hex.EncodeToString(hash.Sum(nil))
	rec.Path = stored
	rec.CreatedAt = s.now().UTC()

	if err := s.saveMetadata(userID, &rec); err != nil {
		os.Remove(filePath)
		return nil, err
	}
	return &rec, nil
}

// Open implements Archive.
func (s *LocalArchive) Open(ctx context.Context, userID, id uuid.UUID) (io.ReadCloser, *Record, error) {
	rec, err := s.record(userID, id)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(filepath.Join(s.basePath, userID.String(), rec.Path))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, rec, nil
}

// List implements Archive.
func (s *LocalArchive) List(ctx context.Context, userID uuid.UUID) ([]*Record, error) {
	metaDir := filepath.Join(s.basePath, userID.String(), ".meta")
	entries, err := os.ReadDir(metaDir)
	if errors.Is(err, fs.ErrNotExist) {
		return []*Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata: %w", err)
	}

	records := make([]*Record, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id, err := uuid.Parse(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		rec, err := s.record(userID, id)
		if err != nil {
			continue
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

// FindByHash implements Archive.
func (s *LocalArchive) FindByHash(ctx context.Context, userID uuid.UUID, sha string) ([]*Record, error) {
	all, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	var matches []*Record
	for _, rec := range all {
		if strings.EqualFold(rec.SHA256, sha) {
			matches = append(matches, rec)
		}
	}
	return matches, nil
}

// HashReader returns the hex SHA-256 of everything r yields.
func HashReader(r io.Reader) (string, error) {
	hash := sha256.New()
	if _, err := io.Copy(hash, r); err != nil {
		return "", fmt.Errorf("failed to hash statement: %w", err)
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

func (s *LocalArchive) record(userID, id uuid.UUID) (*Record, error) {
	metaPath := filepath.Join(s.basePath, userID.String(), ".meta", id.String()+".json")

	data, err := os.ReadFile(metaPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	return &rec, nil
}

func (s *LocalArchive) saveMetadata(userID uuid.UUID, rec *Record) error {
	metaDir := filepath.Join(s.basePath, userID.String(), ".meta")
	if err := os.MkdirAll(metaDir, 0o755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(metaDir, rec.ID.String()+".json"), data, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	return nil
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// sanitizeFilename keeps a base name safe to join under the archive directory.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = unsafeFilename.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "statement"
	}
	if len(name) > 100 {
		name = name[:100]
	}
	return name
}
