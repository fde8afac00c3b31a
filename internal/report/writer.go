package report

import (
	"fmt"
	"io"
	"time"

	"github.com/nao1215/imageloader/internal/model"
)

// Writer renders run records.
type Writer interface {
	// WriteRun outputs the summary of one run, including its images.
	WriteRun(rec *model.RunRecord) (int, error)

	// WriteHistory outputs a list of runs, newest first.
	WriteHistory(runs []*model.RunRecord) (int, error)
}

// Format names accepted by NewWriter.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// NewWriter returns the Writer for format, falling back to text.
func NewWriter(output io.Writer, format string) Writer {
	switch format {
	case FormatMarkdown:
		return NewMarkdownWriter(output)
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint())
	default:
		return NewSimpleWriter(output)
	}
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

const timeLayout = "2006-01-02 15:04:05"

// formatDuration renders the run length rounded to milliseconds.
func formatDuration(rec *model.RunRecord) string {
	if rec.StartedAt.IsZero() || rec.FinishedAt.IsZero() {
		return "-"
	}
	return rec.FinishedAt.Sub(rec.StartedAt).Round(time.Millisecond).String()
}

// status describes how a run ended.
func status(rec *model.RunRecord) string {
	if rec.Error != "" {
		return "failed: " + rec.Error
	}
	return "completed"
}

// imageState describes the result for one image.
func imageState(img model.ImageRecord) string {
	switch {
	case !img.Resolved:
		return "unresolved"
	case img.Succeeded:
		return "saved"
	default:
		return "failed (" + img.Kind.String() + ")"
	}
}

// dimensions returns "format WxH" for images whose header was decoded,
// or "" otherwise.
func dimensions(img model.ImageRecord) string {
	md := img.Metadata
	if md == nil || md.Width == 0 || md.Height == 0 {
		return ""
	}
	return fmt.Sprintf("%s %dx%d", md.Format, md.Width, md.Height)
}

// truncateString truncates a string to maxLen bytes with an ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
