package models

import "strings"

// Paper is a single arXiv entry as returned by the search API.
// Link is the identity of a paper across the whole workspace.
type Paper struct {
	Title         string   `json:"title"`
	Authors       string   `json:"authors"`
	Summary       string   `json:"summary"`
	Link          string   `json:"link"`
	Published     string   `json:"published"`
	SubmittedDate string   `json:"submittedDate"`
	UpdatedDate   string   `json:"updatedDate"`
	Category      string   `json:"category"`
	Subjects      []string `json:"subjects"`
}

// AbstractPreviewLength is the number of summary characters shown collapsed.
const AbstractPreviewLength = 200

// CategoryLabel returns the short label for the primary category, e.g. "cs.CL" -> "CL".
func (p Paper) CategoryLabel() string {
	if p.Category == "" {
		return ""
	}
	parts := strings.Split(p.Category, ".")
	return strings.ToUpper(parts[len(parts)-1])
}

// AbstractPreview truncates the summary to n characters, marking the cut with "...".
func (p Paper) AbstractPreview(n int) string {
	runes := []rune(p.Summary)
	if n < 0 || len(runes) <= n {
		return p.Summary
	}
	return string(runes[:n]) + "..."
}
