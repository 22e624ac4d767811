package extractor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"path"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrUnreadableRoot wraps the failure to list the root of an extraction tree.
var ErrUnreadableRoot = errors.New("unreadable extraction root")

// Walk lazily yields every file below root, depth first. Directories that cannot be listed
// are yielded with their error and skipped; the caller decides whether that is fatal.
// Order within a directory follows fs.ReadDir and must not be relied upon.
func Walk(fsys fs.FS, root string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		walkDir(fsys, root, yield)
	}
}

func walkDir(fsys fs.FS, dir string, yield func(string, error) bool) bool {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return yield(dir, err)
	}
	for _, entry := range entries {
		p := path.Join(dir, entry.Name())
		if entry.IsDir() {
			if !walkDir(fsys, p, yield) {
				return false
			}
			continue
		}
		if !yield(p, nil) {
			return false
		}
	}
	return true
}

// extractTree fans per-file extraction out over at most workers goroutines and collects
// the records in completion order.
func extractTree[T any](
	ctx context.Context,
	fsys fs.FS,
	root string,
	workers int,
	extract func(path string, raw []byte) T,
	failed func(path string, err error) T,
) ([]T, error) {
	g := new(errgroup.Group)
	g.SetLimit(workers)

	var (
		mu      sync.Mutex
		results = make([]T, 0)
		rootErr error
	)
	collect := func(rec T) {
		mu.Lock()
		results = append(results, rec)
		mu.Unlock()
	}

	for p, err := range Walk(fsys, root) {
		if ctx.Err() != nil {
			break
		}
		if err != nil {
			if p == root {
				rootErr = fmt.Errorf("%w %s: %w", ErrUnreadableRoot, root, err)
				break
			}
			collect(failed(p, fmt.Errorf("failed to list directory: %w", err)))
			continue
		}
		if !strings.HasSuffix(p, ".json") {
			continue
		}

		g.Go(func() error {
			collect(extractFile(fsys, p, extract, failed))
			return nil
		})
	}

	_ = g.Wait()

	if rootErr != nil {
		return nil, rootErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// extractFile reads one file and turns read failures and panics into failed records.
func extractFile[T any](fsys fs.FS, p string, extract func(string, []byte) T, failed func(string, error) T) (rec T) {
	defer func() {
		if r := recover(); r != nil {
			rec = failed(p, fmt.Errorf("extraction panicked: %v", r))
		}
	}()

	raw, err := fs.ReadFile(fsys, p)
	if err != nil {
		return failed(p, fmt.Errorf("failed to read file: %w", err))
	}
	return extract(p, raw)
}
