package backend

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Download is an open scored-CSV response.
type Download struct {
	Filename    string
	ContentType string
	Body        io.ReadCloser
}

// DefaultDownloadName is used when the backend sends no usable filename.
func DefaultDownloadName(jobID string) string {
	return "scored_" + jobID + ".csv"
}

func (d *Download) Close() error {
	return d.Body.Close()
}

// SafeFilename strips any directory component from the server-suggested
// name so it cannot escape the destination directory.
func (d *Download) SafeFilename() string {
	name := filepath.Base(strings.ReplaceAll(d.Filename, "\\", "/"))
	if name == "." || name == "/" || name == ".." || name == "" {
		return "download.csv"
	}
	return name
}

// SaveTo writes the body into dir and returns the written path. The body is
// consumed but not closed.
func (d *Download) SaveTo(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating download dir: %w", err)
	}

	path := filepath.Join(dir, d.SafeFilename())
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}

	if _, err := io.Copy(f, d.Body); err != nil {
		f.Close()
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", path, err)
	}
	return path, nil
}
