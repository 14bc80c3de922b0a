// Package camera provides frame sources for the detection pipeline.
package camera

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/teslashibe/go-peekguard/internal/httpc"
)

// ErrNoFrames is returned by a source with nothing to capture.
var ErrNoFrames = errors.New("camera: no frames")

// Source produces encoded frames on demand. An empty buffer is a valid
// return; the preprocessor decides what to do with it.
type Source interface {
	Capture(ctx context.Context) ([]byte, error)
}

// HTTPSource fetches a still image from a snapshot URL on every capture,
// such as an IP camera or a phone camera bridge.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

// NewHTTPSource creates a source for url using the shared client.
func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{URL: url}
}

// Capture implements Source
func (s *HTTPSource) Capture(ctx context.Context) ([]byte, error) {
	data, err := httpc.GetBytes(ctx, s.Client, s.URL)
	if err != nil {
		return nil, fmt.Errorf("camera: snapshot: %w", err)
	}
	return data, nil
}

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".webp": true, ".tif": true, ".tiff": true,
}

// DirSource replays the images in a directory in name order, looping.
type DirSource struct {
	files []string
	mu    sync.Mutex
	next  int
}

// NewDirSource lists the image files in dir.
func NewDirSource(dir string) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("camera: read dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoFrames, dir)
	}
	sort.Strings(files)

	return &DirSource{files: files}, nil
}

// Len returns the number of files in the loop.
func (s *DirSource) Len() int { return len(s.files) }

// Capture implements Source
func (s *DirSource) Capture(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	path := s.files[s.next]
	s.next = (s.next + 1) % len(s.files)
	s.mu.Unlock()

	return os.ReadFile(path)
}

// Func adapts a function to Source.
type Func func(ctx context.Context) ([]byte, error)

// Capture implements Source
func (f Func) Capture(ctx context.Context) ([]byte, error) { return f(ctx) }
