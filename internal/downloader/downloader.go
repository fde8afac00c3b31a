package downloader

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/nao1215/imageloader/internal/metadata"
	"github.com/nao1215/imageloader/internal/model"
)

// inspectHeadSize is how much of each file is kept in memory for metadata inspection.
const inspectHeadSize = 256 * 1024

var (
	// ErrUnusableFilename is returned for filenames that cannot name a file
	// inside the destination directory ("", ".", "..", or containing a separator).
	ErrUnusableFilename = errors.New("unusable filename")

	// ErrHTTPStatus is returned when the image request answered with a status other than 200.
	ErrHTTPStatus = errors.New("unexpected HTTP status")
)

// Downloader retrieves resolved images into a directory and records the
// successful ones in the manifest.
type Downloader struct {
	client  *http.Client
	logger  *slog.Logger
	now     func() time.Time
	inspect func([]byte) *model.ImageMetadata
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Downloader) {
		d.logger = logger
	}
}

// WithClock sets the time source used for the manifest timestamp.
func WithClock(now func() time.Time) Option {
	return func(d *Downloader) {
		d.now = now
	}
}

// WithoutMetadata disables header and EXIF inspection of downloaded files.
func WithoutMetadata() Option {
	return func(d *Downloader) {
		d.inspect = nil
	}
}

// New creates a Downloader sending requests with client.
func New(client *http.Client, opts ...Option) *Downloader {
	d := &Downloader{
		client:  client,
		logger:  slog.Default(),
		now:     time.Now,
		inspect: metadata.Inspect,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Download fetches every image into destDir in order and writes the manifest.
//
// Per-image failures are logged, recorded in the summary and skipped. The
// only error returned for a normal run is the failure to create the
// manifest. When ctx is cancelled the remaining images are not attempted,
// the manifest is still closed, and ctx.Err() is returned with the partial
// summary.
func (d *Downloader) Download(ctx context.Context, pageURL string, images []model.ResolvedImage, destDir string) (*model.DownloadSummary, error) {
	manifest, err := CreateManifest(destDir, pageURL, d.now())
	if err != nil {
		return nil, err
	}

	summary := &model.DownloadSummary{
		ManifestPath: manifest.Path(),
		Outcomes:     make([]model.DownloadOutcome, 0, len(images)),
	}

	var ctxErr error
	for _, img := range images {
		if err := ctx.Err(); err != nil {
			ctxErr = err
			break
		}

		outcome := d.downloadOne(ctx, img, destDir)
		summary.Outcomes = append(summary.Outcomes, outcome)

		if !outcome.Succeeded {
			d.logger.Warn("download failed",
				"url", img.URL,
				"filename", img.Filename,
				"kind", outcome.Kind.String(),
				"error", outcome.ErrorMessage,
			)
			continue
		}

		d.logger.Info("downloaded", "filename", img.Filename, "bytes", outcome.Bytes)
		if err := manifest.Add(img.URL); err != nil {
			d.logger.Warn("failed to append to manifest", "url", img.URL, "error", err)
		}
	}

	if err := manifest.Close(); err != nil {
		d.logger.Warn("failed to close manifest", "path", manifest.Path(), "error", err)
	}

	return summary, ctxErr
}

// downloadOne fetches img to destDir/img.Filename through a temporary file
// that is renamed into place only after the whole body was written.
func (d *Downloader) downloadOne(ctx context.Context, img model.ResolvedImage, destDir string) model.DownloadOutcome {
	outcome := model.DownloadOutcome{Image: img}

	if !usableFilename(img.Filename) {
		return failed(outcome, model.ErrorKindIO, fmt.Errorf("%w: %q", ErrUnusableFilename, img.Filename))
	}
	dest := filepath.Join(destDir, img.Filename)
	outcome.Path = dest

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, img.URL, nil)
	if err != nil {
		return failed(outcome, model.ErrorKindNetwork, err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return failed(outcome, classify(err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return failed(outcome, model.ErrorKindNetwork, fmt.Errorf("%w: %d", ErrHTTPStatus, resp.StatusCode))
	}

	tmp, err := os.CreateTemp(destDir, "."+img.Filename+".tmp-*")
	if err != nil {
		return failed(outcome, model.ErrorKindIO, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	hasher, err := blake2b.New256(nil)
	if err != nil {
		return failed(outcome, model.ErrorKindIO, err)
	}
	head := &headBuffer{limit: inspectHeadSize}

	n, err := io.Copy(io.MultiWriter(tmp, hasher, head), resp.Body)
	if err != nil {
		var pathErr *os.PathError
		if errors.As(err, &pathErr) {
			return failed(outcome, model.ErrorKindIO, err)
		}
		return failed(outcome, classify(err), err)
	}

	if err := tmp.Chmod(0o644); err != nil { //nolint:gosec // downloaded images are meant to be readable
		return failed(outcome, model.ErrorKindIO, err)
	}
	if err := tmp.Close(); err != nil {
		return failed(outcome, model.ErrorKindIO, err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return failed(outcome, model.ErrorKindIO, err)
	}
	committed = true

	outcome.Succeeded = true
	outcome.Kind = model.ErrorKindNone
	outcome.Bytes = n
	outcome.Digest = hex.EncodeToString(hasher.Sum(nil))
	if d.inspect != nil {
		outcome.Metadata = d.inspect(head.buf)
	}

	return outcome
}

func failed(o model.DownloadOutcome, kind model.ErrorKind, err error) model.DownloadOutcome {
	o.Succeeded = false
	o.Kind = kind
	o.Err = err
	o.ErrorMessage = err.Error()
	return o
}

// classify maps a request or body read error to Timeout or Network.
func classify(err error) model.ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return model.ErrorKindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return model.ErrorKindTimeout
	}
	return model.ErrorKindNetwork
}

// usableFilename reports whether name can be used as a file directly inside
// the destination directory.
func usableFilename(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return filepath.Base(name) == name
}

// headBuffer keeps the first limit bytes written to it and discards the rest.
type headBuffer struct {
	buf   []byte
	limit int
}

func (h *headBuffer) Write(p []byte) (int, error) {
	if room := h.limit - len(h.buf); room > 0 {
		if len(p) < room {
			room = len(p)
		}
		h.buf = append(h.buf, p[:room]...)
	}
	return len(p), nil
}
