package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/arxiv-channels/internal/models"
	appErrors "github.com/noah-isme/arxiv-channels/pkg/errors"
	"github.com/noah-isme/arxiv-channels/pkg/export"
)

type channelReaderStub struct {
	channel *models.ChannelView
	err     error
}

func (s channelReaderStub) GetChannel(ctx context.Context, id string) (*models.ChannelView, error) {
	return s.channel, s.err
}

type failingPDF struct{}

func (failingPDF) Render(export.Dataset, string) ([]byte, error) { return nil, errors.New("font missing") }
func (failingPDF) ContentType() string                          { return "application/pdf" }

func exportFixture() *models.ChannelView {
	executed := time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)
	return &models.ChannelView{Channel: models.Channel{
		ID:   "channel-3",
		Name: "Graph Neural Networks",
		Results: []models.ResultBatch{
			models.NewResultBatch([]models.Paper{
				{Title: "GNN survey", Authors: "A, B", Link: "L1", Published: "2024-04-30", UpdatedDate: "2024-05-01", Category: "cs.LG", Subjects: []string{"cs.LG", "stat.ML"}},
			}, executed, models.FetchOptions{MaxResults: 5}),
			models.NewResultBatch(nil, executed.Add(time.Hour), models.FetchOptions{MaxResults: 5}),
			models.NewResultBatch([]models.Paper{{Title: "Message passing", Link: "L2"}}, executed.Add(2*time.Hour), models.FetchOptions{MaxResults: 5}),
		},
	}}
}

func TestExportCSV(t *testing.T) {
	svc := NewExportService(channelReaderStub{channel: exportFixture()}, nil, nil, nil)
	svc.now = func() time.Time { return time.Date(2024, 5, 2, 10, 11, 12, 0, time.UTC) }

	result, err := svc.Export(context.Background(), "channel-3", "CSV")
	require.NoError(t, err)
	assert.Equal(t, "graph-neural-networks_20240502_101112.csv", result.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", result.ContentType)

	records, err := csv.NewReader(bytes.NewReader(result.Payload)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, ExportHeaders, records[0])
	assert.Equal(t, []string{"1", "2024/05/01 09:00:00", "GNN survey", "A, B", "2024-04-30", "2024-05-01", "cs.LG", "cs.LG stat.ML", "L1"}, records[1])
	assert.Equal(t, "3", records[2][0])
	assert.Equal(t, "L2", records[2][8])
}

func TestExportPDF(t *testing.T) {
	svc := NewExportService(channelReaderStub{channel: exportFixture()}, nil, nil, nil)

	result, err := svc.Export(context.Background(), "channel-3", "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, bytes.HasPrefix(result.Payload, []byte("%PDF-")))
}

func TestExportErrors(t *testing.T) {
	svc := NewExportService(channelReaderStub{channel: exportFixture()}, nil, nil, nil)
	_, err := svc.Export(context.Background(), "channel-3", "xlsx")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	svc = NewExportService(channelReaderStub{err: appErrors.Clone(appErrors.ErrNotFound, "channel not found")}, nil, nil, nil)
	_, err = svc.Export(context.Background(), "channel-404", "csv")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	svc = NewExportService(channelReaderStub{channel: exportFixture()}, nil, nil, failingPDF{})
	_, err = svc.Export(context.Background(), "channel-3", "pdf")
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestExportFilenameFallsBackToChannelID(t *testing.T) {
	fixture := exportFixture()
	fixture.Name = "量子"
	svc := NewExportService(channelReaderStub{channel: fixture}, nil, nil, nil)
	svc.now = func() time.Time { return time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC) }

	result, err := svc.Export(context.Background(), "channel-3", "")
	require.NoError(t, err)
	assert.Equal(t, "channel-3_20240502_000000.csv", result.Filename)
}
