package render

import (
	"encoding/json"
	"io"

	"github.com/RyanBlaney/sonido-mix/mixfit/model"
	"github.com/RyanBlaney/sonido-mix/store"
)

// JSON writes the report as indented JSON with stems in analysis order.
func JSON(w io.Writer, report *model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// Summaries writes a history listing as indented JSON.
func Summaries(w io.Writer, summaries []store.ReportSummary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summaries)
}
