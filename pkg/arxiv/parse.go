package arxiv

import (
	"fmt"
	"io"
	"strings"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"github.com/noah-isme/arxiv-channels/internal/models"
)

// arXiv-specific Atom extension namespace. gofeed keys extensions by the declared
// prefix, or by the namespace URI when the prefix could not be resolved.
const (
	arxivPrefix    = "arxiv"
	arxivNamespace = "http://arxiv.org/schemas/atom"
)

// ParseFeed maps an Atom response body to papers in document order.
func ParseFeed(parser *gofeed.Parser, body io.Reader) ([]models.Paper, error) {
	if parser == nil {
		parser = gofeed.NewParser()
	}
	feed, err := parser.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	papers := make([]models.Paper, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		papers = append(papers, toPaper(item))
	}
	return papers, nil
}

func toPaper(item *gofeed.Item) models.Paper {
	link := item.GUID
	if link == "" {
		link = item.Link
	}
	published := dateOnly(item.Published)

	return models.Paper{
		Title:   item.Title,
		Authors: joinAuthors(item.Authors),
		Summary: item.Description,
		Link:    link,
		// The API exposes no submission date; first publication stands in for it.
		Published:     published,
		SubmittedDate: published,
		UpdatedDate:   dateOnly(item.Updated),
		Category:      primaryCategory(item.Extensions),
		Subjects:      subjects(item.Categories),
	}
}

func joinAuthors(people []*gofeed.Person) string {
	names := make([]string, 0, len(people))
	for _, person := range people {
		if person == nil {
			names = append(names, "")
			continue
		}
		names = append(names, person.Name)
	}
	return strings.Join(names, ", ")
}

// dateOnly keeps the calendar part of an ISO-8601 stamp.
func dateOnly(stamp string) string {
	if len(stamp) <= 10 {
		return stamp
	}
	return stamp[:10]
}

func primaryCategory(extensions ext.Extensions) string {
	for _, key := range []string{arxivPrefix, arxivNamespace} {
		elements, ok := extensions[key]["primary_category"]
		if !ok || len(elements) == 0 {
			continue
		}
		return elements[0].Attrs["term"]
	}
	return ""
}

func subjects(categories []string) []string {
	out := make([]string, 0, len(categories))
	for _, term := range categories {
		if term != "" {
			out = append(out, term)
		}
	}
	return out
}
