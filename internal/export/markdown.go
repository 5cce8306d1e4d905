package export

import (
	"fmt"
	"io"
)

// MarkdownExporter exports reports in Markdown format
type MarkdownExporter struct{}

// Export writes a report as a readable Markdown document
func (e *MarkdownExporter) Export(report *Report, w io.Writer) error {
	_, _ = fmt.Fprintf(w, "# %s\n\n", report.Question)

	if report.Workspace != "" {
		_, _ = fmt.Fprintf(w, "**Workspace:** %s  \n", report.Workspace)
	}
	if report.LatencyMs > 0 {
		_, _ = fmt.Fprintf(w, "**Latency:** %d ms  \n", report.LatencyMs)
	}
	if report.Model != "" {
		_, _ = fmt.Fprintf(w, "**Embedding model:** %s  \n", report.Model)
	}
	_, _ = fmt.Fprintf(w, "\n%s\n", report.Answer)

	if len(report.Sources) > 0 {
		_, _ = fmt.Fprintf(w, "\n---\n\n## Sources\n\n")
		for i, source := range report.Sources {
			_, _ = fmt.Fprintf(w, "%d. **%s** (score %.3f)\n\n", i+1, source.Filename, source.Score)
			if source.Excerpt != "" {
				_, _ = fmt.Fprintf(w, "   > %s\n\n", source.Excerpt)
			}
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
