package downloader

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ManifestFileName is the name of the manifest written into the destination directory.
const ManifestFileName = "filelist.txt"

// manifestTimeLayout formats the run timestamp in the manifest header.
const manifestTimeLayout = "2006-01-02T15:04:05"

const manifestSeparator = "----------\n"

// Manifest is the plain-text list of successfully downloaded URLs:
//
//	Downloaded images from <pageURL> at <timestamp>
//	----------
//	<url>
//	...
//	----------
type Manifest struct {
	path   string
	file   *os.File
	closed bool
}

// CreateManifest creates or truncates destDir/filelist.txt and writes the header.
func CreateManifest(destDir, pageURL string, at time.Time) (*Manifest, error) {
	path := filepath.Join(destDir, ManifestFileName)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644) //nolint:gosec // manifest is meant to be readable
	if err != nil {
		return nil, fmt.Errorf("failed to create manifest: %w", err)
	}

	header := fmt.Sprintf("Downloaded images from %s at %s\n%s", pageURL, at.Format(manifestTimeLayout), manifestSeparator)
	if _, err := f.WriteString(header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to write manifest header: %w", err)
	}

	return &Manifest{path: path, file: f}, nil
}

// Path returns the manifest file path.
func (m *Manifest) Path() string {
	return m.path
}

// Add appends one downloaded URL.
func (m *Manifest) Add(url string) error {
	_, err := m.file.WriteString(url + "\n")
	return err
}

// Close writes the closing separator and closes the file.
// Calling Close more than once is a no-op.
func (m *Manifest) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true

	_, werr := m.file.WriteString(manifestSeparator)
	cerr := m.file.Close()
	if werr != nil {
		return werr
	}
	return cerr
}
