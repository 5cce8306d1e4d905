package export

import (
	"encoding/json"
	"io"
)

// JSONExporter exports reports in JSON format (pretty-printed)
type JSONExporter struct{}

// Export writes a report as indented JSON
func (e *JSONExporter) Export(report *Report, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(report)
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}
