package model

import "time"

// Run carries the state of a single invocation through the pipeline.
// Each step reads what earlier steps produced and adds its own output.
type Run struct {
	// PageURL is the page to scrape, as given on the command line.
	PageURL string

	// DestDir is the directory receiving images and the manifest.
	DestDir string

	// StartedAt is when the run began.
	StartedAt time.Time

	// FinishedAt is when the last step returned.
	FinishedAt time.Time

	// Page is the fetched page. Nil until the fetch step succeeds.
	Page *Page

	// References are the images found in the page, in document order.
	References []ImageReference

	// Resolved holds the images whose URL validated, keyed by filename.
	Resolved *ResolvedSet

	// Unresolved holds the references for which no candidate validated.
	Unresolved []ImageReference

	// Summary is the downloader result. Nil when nothing was downloaded.
	Summary *DownloadSummary

	// PerformedSteps lists the names of the steps that ran.
	PerformedSteps []string

	// Error is the fatal error that stopped the run, if any.
	Error error
}

// NewRun creates a Run for pageURL writing into destDir.
func NewRun(pageURL, destDir string) *Run {
	return &Run{
		PageURL:        pageURL,
		DestDir:        destDir,
		StartedAt:      time.Now(),
		References:     make([]ImageReference, 0),
		Resolved:       NewResolvedSet(),
		Unresolved:     make([]ImageReference, 0),
		PerformedSteps: make([]string, 0),
	}
}

// RunRecord is the persisted summary of one run.
type RunRecord struct {
	// ID is the database identifier. Zero for unsaved records.
	ID int64 `json:"id,omitempty"`

	// PageURL is the scraped page.
	PageURL string `json:"page_url"`

	// DestDir is where images were written.
	DestDir string `json:"dest_dir"`

	// PageHash is the SHA-256 of the fetched page body.
	PageHash string `json:"page_hash,omitempty"`

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Found is the number of image references extracted.
	Found int `json:"found"`

	// Resolved is the number of distinct filenames that validated.
	Resolved int `json:"resolved"`

	// Downloaded is the number of images written to disk.
	Downloaded int `json:"downloaded"`

	// Failed is the number of resolved images that failed to download.
	Failed int `json:"failed"`

	// Error is the fatal error message, empty for completed runs.
	Error string `json:"error,omitempty"`

	// Images holds per-image details.
	Images []ImageRecord `json:"images,omitempty"`
}

// ImageRecord is the persisted result for one image reference.
type ImageRecord struct {
	Filename  string         `json:"filename"`
	Source    string         `json:"source"`
	URL       string         `json:"url,omitempty"`
	Resolved  bool           `json:"resolved"`
	Succeeded bool           `json:"succeeded"`
	Kind      ErrorKind      `json:"error_kind"`
	Error     string         `json:"error,omitempty"`
	Bytes     int64          `json:"bytes,omitempty"`
	Digest    string         `json:"digest,omitempty"`
	Metadata  *ImageMetadata `json:"metadata,omitempty"`
}

// Record converts the run state into a RunRecord.
// Unresolved references are included with Resolved set to false.
func (r *Run) Record() *RunRecord {
	rec := &RunRecord{
		PageURL:    r.PageURL,
		DestDir:    r.DestDir,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Found:      len(r.References),
		Images:     make([]ImageRecord, 0),
	}
	if r.Page != nil {
		rec.PageHash = r.Page.Hash
	}
	if r.Resolved != nil {
		rec.Resolved = r.Resolved.Len()
	}
	if r.Error != nil {
		rec.Error = r.Error.Error()
	}

	if r.Summary != nil {
		rec.Downloaded = r.Summary.Succeeded()
		rec.Failed = r.Summary.Failed()
		for _, o := range r.Summary.Outcomes {
			rec.Images = append(rec.Images, ImageRecord{
				Filename:  o.Image.Filename,
				Source:    o.Image.Source,
				URL:       o.Image.URL,
				Resolved:  true,
				Succeeded: o.Succeeded,
				Kind:      o.Kind,
				Error:     o.ErrorMessage,
				Bytes:     o.Bytes,
				Digest:    o.Digest,
				Metadata:  o.Metadata,
			})
		}
	}

	for _, ref := range r.Unresolved {
		rec.Images = append(rec.Images, ImageRecord{
			Filename: ref.Filename,
			Source:   ref.Source,
		})
	}

	return rec
}
