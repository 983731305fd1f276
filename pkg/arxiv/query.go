// Package arxiv adapts the arXiv search API to typed paper records.
package arxiv

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/noah-isme/arxiv-channels/internal/models"
)

// DefaultEndpoint is the public arXiv search API.
const DefaultEndpoint = "https://export.arxiv.org/api/query"

// EscapeTerm percent-encodes a search term the way browsers encode a URI component.
func EscapeTerm(term string) string {
	return strings.ReplaceAll(url.QueryEscape(term), "+", "%20")
}

// BuildSearchQuery returns the search_query value: a full-text term plus an optional
// inclusive submittedDate interval.
func BuildSearchQuery(term string, opts models.FetchOptions) string {
	query := "all:" + EscapeTerm(term)
	if from, to, ok := opts.DateRange(); ok {
		query += fmt.Sprintf("+AND+submittedDate:[%s+TO+%s]", from, to)
	}
	return query
}

// BuildURL assembles the full request URL. The query string is written by hand because
// the API expects literal '+', ':' and brackets in search_query.
func BuildURL(endpoint, term string, opts models.FetchOptions) string {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	opts = opts.Normalize()

	var b strings.Builder
	b.WriteString(endpoint)
	if strings.Contains(endpoint, "?") {
		b.WriteByte('&')
	} else {
		b.WriteByte('?')
	}
	b.WriteString("search_query=")
	b.WriteString(BuildSearchQuery(term, opts))
	b.WriteString("&start=0")
	b.WriteString("&max_results=")
	b.WriteString(strconv.Itoa(opts.MaxResults))
	b.WriteString("&sortBy=submittedDate")
	b.WriteString("&sortOrder=descending")
	return b.String()
}
