package model

import "encoding/json"

// ErrorKind classifies why a single image download failed.
type ErrorKind int

const (
	// ErrorKindNone means the download succeeded.
	ErrorKindNone ErrorKind = iota

	// ErrorKindNetwork covers transport errors and non-200 responses.
	ErrorKindNetwork

	// ErrorKindTimeout means the request exceeded the client timeout.
	ErrorKindTimeout

	// ErrorKindIO covers local failures while creating or writing the file.
	ErrorKindIO
)

// String returns a human-readable representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrorKindNone:
		return "none"
	case ErrorKindNetwork:
		return "network"
	case ErrorKindTimeout:
		return "timeout"
	case ErrorKindIO:
		return "io"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the kind as its string form.
func (k ErrorKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// ParseErrorKind converts the output of String back into an ErrorKind.
// Unknown strings map to ErrorKindNone.
func ParseErrorKind(s string) ErrorKind {
	switch s {
	case "network":
		return ErrorKindNetwork
	case "timeout":
		return ErrorKindTimeout
	case "io":
		return ErrorKindIO
	default:
		return ErrorKindNone
	}
}

// ImageMetadata is the header and EXIF information found in a downloaded image.
type ImageMetadata struct {
	// HasEXIF is true when an EXIF block was found.
	HasEXIF bool `json:"has_exif"`

	// HasGPS is true when any GPS tag was present.
	HasGPS bool `json:"has_gps,omitempty"`

	// Tags holds selected tag values keyed by tag name
	// (camera make/model, software, timestamps, author).
	Tags map[string]string `json:"tags,omitempty"`

	// Format is the decoded image format ("jpeg", "png", "gif", "webp",
	// "bmp" or "tiff"). Empty when the header could not be decoded.
	Format string `json:"format,omitempty"`

	// Width and Height are the pixel dimensions read from the image header.
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
}

// DownloadOutcome is the result of retrieving one resolved image.
type DownloadOutcome struct {
	// Image is the image that was downloaded.
	Image ResolvedImage `json:"image"`

	// Succeeded is true when the file was written completely.
	Succeeded bool `json:"succeeded"`

	// Kind classifies the failure when Succeeded is false.
	Kind ErrorKind `json:"error_kind"`

	// Err is the underlying failure.
	Err error `json:"-"`

	// ErrorMessage is Err rendered as text, kept for storage and reports.
	ErrorMessage string `json:"error,omitempty"`

	// Path is the destination file path.
	Path string `json:"path,omitempty"`

	// Bytes is the number of bytes written.
	Bytes int64 `json:"bytes,omitempty"`

	// Digest is the hex BLAKE2b-256 digest of the file content.
	Digest string `json:"digest,omitempty"`

	// Metadata is the EXIF information found in the file, if any.
	Metadata *ImageMetadata `json:"metadata,omitempty"`
}

// DownloadSummary collects the outcomes of one Downloader run.
type DownloadSummary struct {
	// ManifestPath is the path of the filelist written for this run.
	ManifestPath string `json:"manifest_path"`

	// Outcomes holds one entry per image in processing order.
	Outcomes []DownloadOutcome `json:"outcomes"`
}

// Succeeded returns the number of successful downloads.
func (s *DownloadSummary) Succeeded() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Succeeded {
			n++
		}
	}
	return n
}

// Failed returns the number of failed downloads.
func (s *DownloadSummary) Failed() int {
	return len(s.Outcomes) - s.Succeeded()
}

// SucceededURLs returns the URLs of the successful downloads in order.
func (s *DownloadSummary) SucceededURLs() []string {
	urls := make([]string, 0, len(s.Outcomes))
	for _, o := range s.Outcomes {
		if o.Succeeded {
			urls = append(urls, o.Image.URL)
		}
	}
	return urls
}
