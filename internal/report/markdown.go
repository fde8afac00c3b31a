package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/imageloader/internal/model"
)

// MarkdownWriter outputs GitHub-flavored Markdown built with nao1215/markdown.
type MarkdownWriter struct {
	baseWriter

	// title capitalizes the result labels in tables.
	title cases.Caser
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		title:      cases.Title(language.English),
	}
}

// WriteRun implements Writer.
func (w *MarkdownWriter) WriteRun(rec *model.RunRecord) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("imageloader run")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Page", "`" + rec.PageURL + "`"},
			{"Directory", "`" + rec.DestDir + "`"},
			{"Started", rec.StartedAt.Local().Format(timeLayout)},
			{"Duration", formatDuration(rec)},
			{"Status", status(rec)},
		},
	})
	md.PlainText("")

	w.writeCounts(md, rec)
	w.writeImages(md, rec)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeCounts(md *markdown.Markdown, rec *model.RunRecord) {
	unresolved := 0
	for _, img := range rec.Images {
		if !img.Resolved {
			unresolved++
		}
	}

	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Found", "Resolved", "Downloaded", "Failed"},
		Rows: [][]string{{
			strconv.Itoa(rec.Found),
			strconv.Itoa(rec.Resolved),
			strconv.Itoa(rec.Downloaded),
			strconv.Itoa(rec.Failed),
		}},
	})
	md.PlainText("")

	if rec.Found > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Image outcomes"),
			piechart.WithShowData(true),
		)
		if rec.Downloaded > 0 {
			chart.LabelAndIntValue("Downloaded", uint64(rec.Downloaded))
		}
		if rec.Failed > 0 {
			chart.LabelAndIntValue("Failed", uint64(rec.Failed))
		}
		if unresolved > 0 {
			chart.LabelAndIntValue("Unresolved", uint64(unresolved))
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	switch {
	case rec.Error != "":
		md.Cautionf("The run stopped: %s", rec.Error)
	case rec.Found == 0:
		md.Note("The page contained no images.")
	case rec.Failed > 0 || unresolved > 0:
		md.Warningf("%d image(s) were not saved.", rec.Failed+unresolved)
	default:
		md.Tip("Every image was saved.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeImages(md *markdown.Markdown, rec *model.RunRecord) {
	if len(rec.Images) == 0 {
		return
	}

	md.H2("Images")
	md.PlainText("")

	rows := make([][]string, len(rec.Images))
	var gps []string
	for i, img := range rec.Images {
		u := img.URL
		if u == "" {
			u = "-"
		}
		size := "-"
		if img.Succeeded {
			size = strconv.FormatInt(img.Bytes, 10)
		}
		dim := dimensions(img)
		if dim == "" {
			dim = "-"
		}
		rows[i] = []string{
			"`" + img.Filename + "`",
			truncateString(u, 60),
			w.title.String(imageState(img)),
			size,
			dim,
		}
		if img.Metadata != nil && img.Metadata.HasGPS {
			gps = append(gps, img.Filename)
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"File", "URL", "Result", "Bytes", "Image"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(gps) > 0 {
		md.Warningf("%d image(s) carry GPS coordinates in their EXIF data:", len(gps))
		md.BulletList(gps...)
		md.PlainText("")
	}
}

// WriteHistory implements Writer.
func (w *MarkdownWriter) WriteHistory(runs []*model.RunRecord) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("imageloader history")
	md.PlainText("")

	if len(runs) == 0 {
		md.PlainText("No runs recorded.")
		return len(md.String()), md.Build()
	}

	rows := make([][]string, len(runs))
	for i, r := range runs {
		rows[i] = []string{
			strconv.FormatInt(r.ID, 10),
			r.StartedAt.Local().Format(timeLayout),
			truncateString(r.PageURL, 60),
			strconv.Itoa(r.Found),
			strconv.Itoa(r.Resolved),
			strconv.Itoa(r.Downloaded),
			strconv.Itoa(r.Failed),
			w.title.String(status(r)),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"ID", "Started", "Page", "Found", "Resolved", "Downloaded", "Failed", "Status"},
		Rows:   rows,
	})

	return len(md.String()), md.Build()
}
