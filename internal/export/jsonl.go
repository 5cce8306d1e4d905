package export

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONLExporter exports reports in JSONL format: the answer record on the
// first line, then one line per retrieved source.
type JSONLExporter struct{}

// Export writes a report as line-delimited JSON
func (e *JSONLExporter) Export(report *Report, w io.Writer) error {
	enc := json.NewEncoder(w)

	answer := map[string]interface{}{
		"type":     "answer",
		"question": report.Question,
		"answer":   report.Answer,
	}
	if report.LatencyMs > 0 {
		answer["latency_ms"] = report.LatencyMs
	}
	if err := enc.Encode(answer); err != nil {
		return fmt.Errorf("failed to encode answer: %w", err)
	}

	for _, source := range report.Sources {
		obj := map[string]interface{}{
			"type":        "source",
			"chunk_id":    source.ChunkID,
			"document_id": source.DocumentID,
			"filename":    source.Filename,
			"score":       source.Score,
			"excerpt":     source.Excerpt,
		}
		if err := enc.Encode(obj); err != nil {
			return fmt.Errorf("failed to encode source: %w", err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
