// Package report renders run records: the summary printed after a run and
// the listing produced by `imageloader history`. Text, Markdown
// (github.com/nao1215/markdown) and JSON writers implement Writer.
package report
