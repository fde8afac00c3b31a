package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/imageloader/internal/model"
)

// SimpleWriter outputs plain text for terminals.
type SimpleWriter struct {
	baseWriter

	// verbose lists every image, not only the failed ones.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose lists every image in WriteRun.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteRun implements Writer.
func (w *SimpleWriter) WriteRun(rec *model.RunRecord) (int, error) {
	var sb strings.Builder

	sb.WriteString(strings.Repeat("-", 60))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Page:        %s\n", rec.PageURL)
	fmt.Fprintf(&sb, "Directory:   %s\n", rec.DestDir)
	fmt.Fprintf(&sb, "Status:      %s\n", status(rec))
	fmt.Fprintf(&sb, "Duration:    %s\n", formatDuration(rec))
	fmt.Fprintf(&sb, "Found:       %d\n", rec.Found)
	fmt.Fprintf(&sb, "Resolved:    %d\n", rec.Resolved)
	fmt.Fprintf(&sb, "Downloaded:  %d\n", rec.Downloaded)
	fmt.Fprintf(&sb, "Failed:      %d\n", rec.Failed)

	var listed bool
	for _, img := range rec.Images {
		if !w.verbose && img.Succeeded {
			continue
		}
		if !listed {
			sb.WriteString("\n")
			listed = true
		}
		marker := "-"
		if img.Succeeded {
			marker = "+"
		}
		state := imageState(img)
		if dim := dimensions(img); dim != "" {
			state += " (" + dim + ")"
		}
		fmt.Fprintf(&sb, "  [%s] %s  %s\n", marker, img.Filename, state)
		if img.URL != "" {
			fmt.Fprintf(&sb, "      %s\n", img.URL)
		} else {
			fmt.Fprintf(&sb, "      src=%s\n", img.Source)
		}
		if img.Metadata != nil && img.Metadata.HasGPS {
			sb.WriteString("      contains GPS coordinates\n")
		}
	}

	sb.WriteString(strings.Repeat("-", 60))
	sb.WriteString("\n")

	return io.WriteString(w.output, sb.String())
}

// WriteHistory implements Writer.
func (w *SimpleWriter) WriteHistory(runs []*model.RunRecord) (int, error) {
	var sb strings.Builder

	if len(runs) == 0 {
		sb.WriteString("No runs recorded.\n")
		return io.WriteString(w.output, sb.String())
	}

	fmt.Fprintf(&sb, "%-5s  %-19s  %5s  %8s  %10s  %6s  %s\n",
		"ID", "STARTED", "FOUND", "RESOLVED", "DOWNLOADED", "FAILED", "PAGE")
	for _, r := range runs {
		page := r.PageURL
		if r.Error != "" {
			page += " (failed)"
		}
		fmt.Fprintf(&sb, "%-5d  %-19s  %5d  %8d  %10d  %6d  %s\n",
			r.ID, r.StartedAt.Local().Format(timeLayout),
			r.Found, r.Resolved, r.Downloaded, r.Failed, page)
	}

	return io.WriteString(w.output, sb.String())
}
