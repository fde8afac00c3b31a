package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/imageloader/internal/model"
)

// JSONWriter outputs run records as JSON for scripts.
type JSONWriter struct {
	baseWriter

	indent       bool
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint enables indented output.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = ""
		w.indentString = "  "
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteRun implements Writer.
func (w *JSONWriter) WriteRun(rec *model.RunRecord) (int, error) {
	return w.writeJSON(rec)
}

// WriteHistory implements Writer. An empty history is written as [].
func (w *JSONWriter) WriteHistory(runs []*model.RunRecord) (int, error) {
	if runs == nil {
		runs = []*model.RunRecord{}
	}
	return w.writeJSON(runs)
}

func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')
	return w.output.Write(data)
}
