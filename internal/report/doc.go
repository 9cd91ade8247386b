// Package report renders run reports.
//
// This package contains writers for different output formats:
//   - SimpleWriter: human-readable text for the terminal
//   - JSONWriter: structured JSON for tool integration
//   - MarkdownWriter: Markdown with a mermaid chart of allocation outcomes
//
// Reports carry statistics and probabilities only. Secret sequences, role
// passwords and tripwire choices never appear in any format.
package report
