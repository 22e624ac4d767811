package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/shard-legends/crafting-source-service/internal/models"
)

// fileArtifactRepository хранит артефакты в <dir>/<version id>/data.json
type fileArtifactRepository struct {
	dir     string
	metrics MetricsInterface
}

// NewFileArtifactRepository создает файловое хранилище артефактов
func NewFileArtifactRepository(dir string, metrics MetricsInterface) ArtifactRepository {
	return &fileArtifactRepository{dir: dir, metrics: metrics}
}

// Save сериализует артефакт в память целиком и только потом пишет его через временный файл
func (r *fileArtifactRepository) Save(ctx context.Context, artifact *models.VersionedArtifact) (err error) {
	start := time.Now()
	defer func() {
		r.observe("save", start, err)
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	versionDir, err := r.versionDir(artifact.Version)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := models.EncodeArtifact(&buf, artifact); err != nil {
		return fmt.Errorf("failed to encode artifact %s: %w", artifact.Version, err)
	}

	if err := os.MkdirAll(versionDir, 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(versionDir, ArtifactFileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync artifact: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close artifact: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to chmod artifact: %w", err)
	}
	if err = os.Rename(tmp.Name(), filepath.Join(versionDir, ArtifactFileName)); err != nil {
		return fmt.Errorf("failed to move artifact into place: %w", err)
	}
	return nil
}

// Load читает артефакт версии с диска
func (r *fileArtifactRepository) Load(ctx context.Context, versionID string) (artifact *models.VersionedArtifact, err error) {
	start := time.Now()
	defer func() {
		r.observe("load", start, err)
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	versionDir, err := r.versionDir(versionID)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(versionDir, ArtifactFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, versionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact %s: %w", versionID, err)
	}
	defer f.Close()

	artifact, err = models.DecodeArtifact(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode artifact %s: %w", versionID, err)
	}
	return artifact, nil
}

// List возвращает отсортированные идентификаторы версий, для которых есть data.json
func (r *fileArtifactRepository) List(ctx context.Context) (ids []string, err error) {
	start := time.Now()
	defer func() {
		r.observe("list", start, err)
	}()

	entries, err := os.ReadDir(r.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}

	ids = make([]string, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.IsDir() {
			continue
		}
		info, err := os.Stat(filepath.Join(r.dir, entry.Name(), ArtifactFileName))
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		ids = append(ids, entry.Name())
	}
	slices.Sort(ids)
	return ids, nil
}

func (r *fileArtifactRepository) versionDir(versionID string) (string, error) {
	if versionID == "" || versionID == "." || versionID == ".." || strings.ContainsAny(versionID, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidVersionID, versionID)
	}
	return filepath.Join(r.dir, versionID), nil
}

func (r *fileArtifactRepository) observe(operation string, start time.Time, err error) {
	if r.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	r.metrics.IncStoreOperation(operation, status)
	r.metrics.ObserveStoreDuration(operation, time.Since(start))
}
