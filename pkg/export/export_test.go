package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"title", "authors", "link"},
		Rows: []map[string]string{
			{"title": "Attention, again", "authors": "Ada Lovelace, Alan Turing", "link": "http://arxiv.org/abs/1"},
			{"title": "Café physics", "authors": "Émilie du Châtelet"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter(CSVOptions{}).Render(sampleDataset())
	require.NoError(t, err)

	expected := "title,authors,link\n" +
		"\"Attention, again\",\"Ada Lovelace, Alan Turing\",http://arxiv.org/abs/1\n" +
		"Café physics,Émilie du Châtelet,\n"
	assert.Equal(t, expected, string(out))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter(CSVOptions{}).Render(Dataset{})
	assert.Error(t, err)
}

func TestCSVExporterDialect(t *testing.T) {
	data := Dataset{
		Headers: []string{"title", "link"},
		Rows: []map[string]string{
			{"title": "Attention Is\n  Still All You Need", "link": "http://arxiv.org/abs/1"},
		},
	}

	out, err := NewCSVExporter(CSVOptions{Delimiter: ';', ByteOrderMark: true}).Render(data)
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(out, utf8BOM))
	assert.Equal(t, "title;link\nAttention Is Still All You Need;http://arxiv.org/abs/1\n", string(out[len(utf8BOM):]))
}

func TestParseDelimiter(t *testing.T) {
	cases := map[string]rune{"": ',', ",": ',', ";": ';', "tab": '\t', `\t`: '\t', "|": '|'}
	for raw, expected := range cases {
		got, err := ParseDelimiter(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, expected, got, raw)
	}

	for _, raw := range []string{"ab", "\"", "\n"} {
		_, err := ParseDelimiter(raw)
		assert.ErrorIs(t, err, ErrInvalidDelimiter, raw)
	}
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter("title").Render(sampleDataset(), "transformer")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))

	_, err = NewPDFExporter("title").Render(Dataset{}, "")
	assert.Error(t, err)
}
