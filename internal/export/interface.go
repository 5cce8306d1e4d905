package export

import (
	"fmt"
	"io"
	"time"

	"github.com/kivohq/kivoctl/internal"
)

// Report is an exportable snapshot of one query invocation
type Report struct {
	Workspace string                 `json:"workspace,omitempty" yaml:"workspace,omitempty"`
	Question  string                 `json:"question" yaml:"question"`
	Answer    string                 `json:"answer" yaml:"answer"`
	Sources   []internal.QuerySource `json:"sources,omitempty" yaml:"sources,omitempty"`
	Model     string                 `json:"embedding_model,omitempty" yaml:"embedding_model,omitempty"`
	LatencyMs int                    `json:"latency_ms,omitempty" yaml:"latency_ms,omitempty"`
	CreatedAt time.Time              `json:"created_at" yaml:"created_at"`
}

// NewReport assembles a report from a query result
func NewReport(workspace, question string, result *internal.QueryResult, latencyMs int) *Report {
	return &Report{
		Workspace: workspace,
		Question:  question,
		Answer:    result.Answer,
		Sources:   result.Sources,
		Model:     result.EmbeddingModel,
		LatencyMs: latencyMs,
		CreatedAt: time.Now().UTC(),
	}
}

// Exporter defines the interface for all export formats
type Exporter interface {
	Export(report *Report, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: jsonl, md, yaml, json)", format)
	}
}
