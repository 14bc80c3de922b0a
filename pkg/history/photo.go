package history

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"os"
	"path/filepath"
	"time"

	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/tiff" // Register TIFF decoder
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// PhotoStore saves the frame that confirmed a peeking event.
type PhotoStore struct {
	dir string
}

// NewPhotoStore creates the directory if needed.
func NewPhotoStore(dir string) (*PhotoStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("error creating directory: %w", err)
	}
	return &PhotoStore{dir: dir}, nil
}

// Dir returns the photo directory.
func (p *PhotoStore) Dir() string { return p.dir }

// Save writes data as <timestamp>_peeking_<faces>_<id>.<ext> and returns its
// path. The extension follows the encoded format; data that is not a
// recognized image is rejected.
func (p *PhotoStore) Save(data []byte, id string, at time.Time, faces int) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("history: empty photo")
	}
	if id == "" {
		return "", fmt.Errorf("history: photo needs an event id")
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("history: unrecognized photo: %w", err)
	}

	name := fmt.Sprintf("%s_peeking_%d_%s.%s",
		at.Format("2006-01-02_15-04_05.000"), faces, id, extension(format))
	path := filepath.Join(p.dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("error saving photo %s: %w", name, err)
	}
	return path, nil
}

func extension(format string) string {
	switch format {
	case "jpeg":
		return "jpg"
	case "tiff":
		return "tif"
	default:
		return format
	}
}
