// Package pipeline runs the stages of an image scrape in order.
//
// A Pipeline holds a list of Steps. Each step receives the shared
// model.Run, reads what earlier steps stored there and adds its own
// output. The default order is fetch, extract, resolve and download.
// Execution stops at the first step that returns an error; non-fatal
// problems such as an unresolved image or a failed download are recorded
// in the Run instead.
package pipeline
