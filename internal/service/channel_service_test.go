package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/arxiv-channels/internal/dto"
	"github.com/noah-isme/arxiv-channels/internal/models"
	"github.com/noah-isme/arxiv-channels/internal/repository"
	appErrors "github.com/noah-isme/arxiv-channels/pkg/errors"
)

type fetchCall struct {
	term string
	opts models.FetchOptions
}

type fetcherStub struct {
	mu        sync.Mutex
	responses [][]models.Paper
	err       error
	calls     []fetchCall
	entered   chan struct{}
	release   chan struct{}
}

func (s *fetcherStub) Search(ctx context.Context, term string, opts models.FetchOptions) ([]models.Paper, error) {
	s.mu.Lock()
	s.calls = append(s.calls, fetchCall{term: term, opts: opts})
	var papers []models.Paper
	if len(s.responses) > 0 {
		papers = s.responses[0]
		s.responses = s.responses[1:]
	}
	err := s.err
	entered, release := s.entered, s.release
	s.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if release != nil {
		<-release
	}
	if err != nil {
		return nil, err
	}
	if len(papers) > opts.MaxResults {
		papers = papers[:opts.MaxResults]
	}
	return papers, nil
}

func (s *fetcherStub) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func papersWithLinks(links ...string) []models.Paper {
	out := make([]models.Paper, 0, len(links))
	for _, link := range links {
		out = append(out, models.Paper{Title: "paper " + link, Link: link})
	}
	return out
}

func batchLinks(batch models.ResultBatch) []string {
	links := make([]string, 0, len(batch.Papers))
	for _, p := range batch.Papers {
		links = append(links, p.Link)
	}
	return links
}

func newChannelServiceForTest(fetcher *fetcherStub) (*ChannelService, *repository.WorkspaceRepository) {
	repo := repository.NewWorkspaceRepository()
	svc := NewChannelService(repo, fetcher, nil, nil, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.Local) }
	return svc, repo
}

func addChannel(t *testing.T, svc *ChannelService, query string, folderID *string) *models.ChannelView {
	t.Helper()
	view, err := svc.AddChannel(context.Background(), dto.AddChannelRequest{Query: query, FolderID: folderID})
	require.NoError(t, err)
	return view
}

func strPtr(s string) *string { return &s }

func TestAddChannelEndToEnd(t *testing.T) {
	fetcher := &fetcherStub{responses: [][]models.Paper{papersWithLinks("A", "B")}}
	svc, _ := newChannelServiceForTest(fetcher)

	view, err := svc.AddChannel(context.Background(), dto.AddChannelRequest{
		Query:   "transformer",
		Options: &dto.FetchOptionsRequest{MaxResults: 2},
	})
	require.NoError(t, err)

	assert.Equal(t, "channel-1", view.ID)
	assert.Equal(t, "transformer", view.Name)
	require.Len(t, view.Results, 1)
	assert.Len(t, view.Results[0].Papers, 2)
	assert.Equal(t, 2, view.CurrentOptions.MaxResults)
	assert.Equal(t, 2, view.Results[0].Options.MaxResults)
	assert.Equal(t, "2024/05/01 09:30:00", view.Results[0].ExecutedAtDisplay)
	assert.Equal(t, models.ReloadStateIdle, view.State)
	assert.Equal(t, 2, view.PaperCount)

	ws, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	require.NotNil(t, ws.ActiveID)
	assert.Equal(t, "channel-1", *ws.ActiveID)

	require.Len(t, fetcher.calls, 1)
	assert.Equal(t, "transformer", fetcher.calls[0].term)
}

func TestAddChannelDefaultsToFiveResults(t *testing.T) {
	fetcher := &fetcherStub{}
	svc, _ := newChannelServiceForTest(fetcher)

	view := addChannel(t, svc, "llm", nil)
	assert.Equal(t, models.DefaultMaxResults, view.CurrentOptions.MaxResults)
	assert.Equal(t, models.DefaultMaxResults, fetcher.calls[0].opts.MaxResults)
	require.Len(t, view.Results, 1)
	assert.NotNil(t, view.Results[0].Papers)
	assert.Empty(t, view.Results[0].Papers)
}

func TestAddChannelFailureLeavesStateUntouched(t *testing.T) {
	fetcher := &fetcherStub{err: errors.New("dial tcp: connection refused")}
	svc, _ := newChannelServiceForTest(fetcher)

	_, err := svc.AddChannel(context.Background(), dto.AddChannelRequest{Query: "transformer"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrFetchFailed.Code, appErr.Code)

	ws, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ws.Channels)
	assert.Nil(t, ws.ActiveID)
}

func TestAddChannelValidation(t *testing.T) {
	fetcher := &fetcherStub{}
	svc, _ := newChannelServiceForTest(fetcher)
	ctx := context.Background()

	cases := []dto.AddChannelRequest{
		{Query: "   "},
		{Query: "llm", Options: &dto.FetchOptionsRequest{MaxResults: 31}},
		{Query: "llm", Options: &dto.FetchOptionsRequest{MaxResults: -1}},
	}
	after, err := models.ParseDate("2024-06-01")
	require.NoError(t, err)
	before, err := models.ParseDate("2024-01-01")
	require.NoError(t, err)
	cases = append(cases, dto.AddChannelRequest{Query: "llm", Options: &dto.FetchOptionsRequest{SubmittedDateAfter: &after, SubmittedDateBefore: &before}})

	for _, req := range cases {
		_, err := svc.AddChannel(ctx, req)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
	assert.Equal(t, 0, fetcher.callCount())

	_, err = svc.AddChannel(ctx, dto.AddChannelRequest{Query: "llm", FolderID: strPtr("folder-404")})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 0, fetcher.callCount())
}

func TestIDsShareOneCounter(t *testing.T) {
	svc, _ := newChannelServiceForTest(&fetcherStub{})
	ctx := context.Background()

	folder, err := svc.CreateFolder(ctx, dto.CreateFolderRequest{Name: " NLP "})
	require.NoError(t, err)
	assert.Equal(t, "folder-1", folder.ID)
	assert.Equal(t, "NLP", folder.Name)
	assert.True(t, folder.IsExpanded)

	ch := addChannel(t, svc, "bert", &folder.ID)
	assert.Equal(t, "channel-2", ch.ID)
	require.NotNil(t, ch.FolderID)
	assert.Equal(t, "folder-1", *ch.FolderID)

	_, err = svc.CreateFolder(ctx, dto.CreateFolderRequest{Name: ""})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReloadDeduplicatesAgainstHistory(t *testing.T) {
	fetcher := &fetcherStub{responses: [][]models.Paper{
		papersWithLinks("A", "B"),
		papersWithLinks("B", "C", "D"),
	}}
	svc, _ := newChannelServiceForTest(fetcher)
	ch := addChannel(t, svc, "graphs", nil)

	view, err := svc.ReloadChannel(context.Background(), ch.ID, nil)
	require.NoError(t, err)

	require.Len(t, view.Results, 2)
	assert.Equal(t, []string{"C", "D"}, batchLinks(view.Results[1]))
	assert.Equal(t, 4, view.PaperCount)
}

func TestReloadTwiceWithoutNewPapersIsIdempotent(t *testing.T) {
	fetcher := &fetcherStub{responses: [][]models.Paper{
		papersWithLinks("A", "B"),
		papersWithLinks("A", "B"),
		papersWithLinks("A", "B"),
	}}
	svc, _ := newChannelServiceForTest(fetcher)
	ch := addChannel(t, svc, "graphs", nil)
	ctx := context.Background()

	first, err := svc.ReloadChannel(ctx, ch.ID, nil)
	require.NoError(t, err)
	second, err := svc.ReloadChannel(ctx, ch.ID, nil)
	require.NoError(t, err)

	require.Len(t, second.Results, 3)
	assert.Empty(t, second.Results[2].Papers)
	assert.Equal(t, first.PaperCount, second.PaperCount)
	assert.Equal(t, 2, second.PaperCount)
}

func TestReloadRecordsRequestedOptions(t *testing.T) {
	fetcher := &fetcherStub{responses: [][]models.Paper{papersWithLinks("A"), papersWithLinks("A")}}
	svc, _ := newChannelServiceForTest(fetcher)
	ch := addChannel(t, svc, "graphs", nil)

	after, err := models.ParseDate("2024-01-01")
	require.NoError(t, err)
	view, err := svc.ReloadChannel(context.Background(), ch.ID, &dto.FetchOptionsRequest{MaxResults: 12, SubmittedDateAfter: &after})
	require.NoError(t, err)

	assert.Empty(t, view.Results[1].Papers)
	assert.Equal(t, 12, view.CurrentOptions.MaxResults)
	require.NotNil(t, view.CurrentOptions.SubmittedDateAfter)
	assert.Equal(t, "20240101", view.CurrentOptions.SubmittedDateAfter.Compact())
	assert.Equal(t, 12, view.Results[1].Options.MaxResults)
	assert.Equal(t, 12, fetcher.calls[1].opts.MaxResults)
	assert.Equal(t, "graphs", fetcher.calls[1].term)
}

func TestReloadUsesCurrentOptionsWithoutOverride(t *testing.T) {
	fetcher := &fetcherStub{}
	svc, _ := newChannelServiceForTest(fetcher)
	ctx := context.Background()
	ch, err := svc.AddChannel(ctx, dto.AddChannelRequest{Query: "graphs", Options: &dto.FetchOptionsRequest{MaxResults: 7}})
	require.NoError(t, err)

	_, err = svc.ReloadChannel(ctx, ch.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 7, fetcher.calls[1].opts.MaxResults)
}

func TestReloadFailureLeavesChannelUntouched(t *testing.T) {
	fetcher := &fetcherStub{responses: [][]models.Paper{papersWithLinks("A")}}
	svc, _ := newChannelServiceForTest(fetcher)
	ch := addChannel(t, svc, "graphs", nil)
	ctx := context.Background()

	fetcher.mu.Lock()
	fetcher.err = errors.New("503")
	fetcher.mu.Unlock()

	_, err := svc.ReloadChannel(ctx, ch.ID, &dto.FetchOptionsRequest{MaxResults: 20})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrFetchFailed.Code, appErrors.FromError(err).Code)

	got, err := svc.GetChannel(ctx, ch.ID)
	require.NoError(t, err)
	assert.Len(t, got.Results, 1)
	assert.Equal(t, models.DefaultMaxResults, got.CurrentOptions.MaxResults)
	assert.Equal(t, models.ReloadStateIdle, got.State)
}

func TestReloadUnknownChannel(t *testing.T) {
	fetcher := &fetcherStub{}
	svc, _ := newChannelServiceForTest(fetcher)

	_, err := svc.ReloadChannel(context.Background(), "channel-9", nil)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 0, fetcher.callCount())
}

func TestConcurrentReloadOfSameChannelIsRejected(t *testing.T) {
	fetcher := &fetcherStub{responses: [][]models.Paper{papersWithLinks("A"), papersWithLinks("B")}}
	svc, _ := newChannelServiceForTest(fetcher)
	ch := addChannel(t, svc, "graphs", nil)
	ctx := context.Background()

	fetcher.mu.Lock()
	fetcher.entered = make(chan struct{}, 1)
	fetcher.release = make(chan struct{})
	fetcher.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		_, err := svc.ReloadChannel(ctx, ch.ID, nil)
		done <- err
	}()
	<-fetcher.entered

	assert.Equal(t, models.ReloadStateLoading, svc.ReloadState(ch.ID))
	_, err := svc.ReloadChannel(ctx, ch.ID, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrReloadInProgress.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 2, fetcher.callCount())

	close(fetcher.release)
	require.NoError(t, <-done)

	got, err := svc.GetChannel(ctx, ch.ID)
	require.NoError(t, err)
	assert.Len(t, got.Results, 2)
	assert.Equal(t, models.ReloadStateIdle, got.State)
}

func TestReloadOfDeletedChannelIsDiscarded(t *testing.T) {
	fetcher := &fetcherStub{responses: [][]models.Paper{papersWithLinks("A"), papersWithLinks("B")}}
	svc, _ := newChannelServiceForTest(fetcher)
	ch := addChannel(t, svc, "graphs", nil)
	ctx := context.Background()

	fetcher.mu.Lock()
	fetcher.entered = make(chan struct{}, 1)
	fetcher.release = make(chan struct{})
	fetcher.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		_, err := svc.ReloadChannel(ctx, ch.ID, nil)
		done <- err
	}()
	<-fetcher.entered
	require.NoError(t, svc.DeleteChannel(ctx, ch.ID))
	close(fetcher.release)

	err := <-done
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	ws, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, ws.Channels)
	assert.Equal(t, models.ReloadStateIdle, svc.ReloadState(ch.ID))
}

func TestReloadsOfDifferentChannelsRunConcurrently(t *testing.T) {
	fetcher := &fetcherStub{}
	svc, _ := newChannelServiceForTest(fetcher)
	first := addChannel(t, svc, "a", nil)
	second := addChannel(t, svc, "b", nil)
	ctx := context.Background()

	fetcher.mu.Lock()
	fetcher.entered = make(chan struct{}, 2)
	fetcher.release = make(chan struct{})
	fetcher.mu.Unlock()

	errs := make(chan error, 2)
	for _, id := range []string{first.ID, second.ID} {
		go func(id string) {
			_, err := svc.ReloadChannel(ctx, id, nil)
			errs <- err
		}(id)
	}
	<-fetcher.entered
	<-fetcher.entered
	close(fetcher.release)

	require.NoError(t, <-errs)
	require.NoError(t, <-errs)
}

func TestDeleteChannelClearsActive(t *testing.T) {
	svc, _ := newChannelServiceForTest(&fetcherStub{})
	ctx := context.Background()
	a := addChannel(t, svc, "a", nil)
	b := addChannel(t, svc, "b", nil)

	require.NoError(t, svc.DeleteChannel(ctx, a.ID))
	ws, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, ws.ActiveID)
	assert.Equal(t, b.ID, *ws.ActiveID)

	require.NoError(t, svc.DeleteChannel(ctx, b.ID))
	ws, err = svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, ws.ActiveID)
	assert.Empty(t, ws.Channels)

	assert.NoError(t, svc.DeleteChannel(ctx, "channel-404"))
}

func TestDeleteFolderCascades(t *testing.T) {
	svc, _ := newChannelServiceForTest(&fetcherStub{})
	ctx := context.Background()
	folder, err := svc.CreateFolder(ctx, dto.CreateFolderRequest{Name: "NLP"})
	require.NoError(t, err)

	x := addChannel(t, svc, "x", &folder.ID)
	y := addChannel(t, svc, "y", &folder.ID)
	z := addChannel(t, svc, "z", nil)
	require.NoError(t, svc.SetActive(ctx, &x.ID))

	require.NoError(t, svc.DeleteFolder(ctx, folder.ID))

	ws, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, ws.Folders)
	require.Len(t, ws.Channels, 1)
	assert.Equal(t, z.ID, ws.Channels[0].ID)
	assert.Nil(t, ws.ActiveID)
	_, err = svc.GetChannel(ctx, y.ID)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	assert.NoError(t, svc.DeleteFolder(ctx, "folder-404"))
}

func TestDeleteFolderKeepsActiveOutsideFolder(t *testing.T) {
	svc, _ := newChannelServiceForTest(&fetcherStub{})
	ctx := context.Background()
	folder, err := svc.CreateFolder(ctx, dto.CreateFolderRequest{Name: "NLP"})
	require.NoError(t, err)
	addChannel(t, svc, "x", &folder.ID)
	z := addChannel(t, svc, "z", nil)

	require.NoError(t, svc.DeleteFolder(ctx, folder.ID))
	ws, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, ws.ActiveID)
	assert.Equal(t, z.ID, *ws.ActiveID)
}

func TestMoveChannelToFolder(t *testing.T) {
	svc, _ := newChannelServiceForTest(&fetcherStub{})
	ctx := context.Background()
	folder, err := svc.CreateFolder(ctx, dto.CreateFolderRequest{Name: "NLP"})
	require.NoError(t, err)
	ch := addChannel(t, svc, "x", nil)

	require.NoError(t, svc.MoveChannelToFolder(ctx, ch.ID, &folder.ID))
	ids, err := svc.ChannelsInFolder(ctx, folder.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{ch.ID}, ids)

	err = svc.MoveChannelToFolder(ctx, ch.ID, strPtr("folder-404"))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	got, err := svc.GetChannel(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, folder.ID, *got.FolderID)

	require.NoError(t, svc.MoveChannelToFolder(ctx, ch.ID, nil))
	ids, err = svc.ChannelsInFolder(ctx, folder.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	assert.NoError(t, svc.MoveChannelToFolder(ctx, "channel-404", &folder.ID))
	_, err = svc.ChannelsInFolder(ctx, "folder-404")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func channelOrder(t *testing.T, svc *ChannelService) []string {
	t.Helper()
	ws, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	ids := make([]string, 0, len(ws.Channels))
	for _, ch := range ws.Channels {
		ids = append(ids, ch.Name)
	}
	return ids
}

func TestReorderChannels(t *testing.T) {
	svc, _ := newChannelServiceForTest(&fetcherStub{})
	ctx := context.Background()
	a := addChannel(t, svc, "A", nil)
	b := addChannel(t, svc, "B", nil)
	c := addChannel(t, svc, "C", nil)

	require.NoError(t, svc.ReorderChannels(ctx, dto.ReorderChannelsRequest{FromID: c.ID, ToID: a.ID}))
	assert.Equal(t, []string{"C", "A", "B"}, channelOrder(t, svc))

	require.NoError(t, svc.ReorderChannels(ctx, dto.ReorderChannelsRequest{FromID: c.ID, ToID: b.ID}))
	assert.Equal(t, []string{"A", "B", "C"}, channelOrder(t, svc))

	require.NoError(t, svc.ReorderChannels(ctx, dto.ReorderChannelsRequest{FromID: "channel-404", ToID: b.ID}))
	assert.Equal(t, []string{"A", "B", "C"}, channelOrder(t, svc))

	err := svc.ReorderChannels(ctx, dto.ReorderChannelsRequest{FromID: a.ID})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestToggleFolder(t *testing.T) {
	svc, _ := newChannelServiceForTest(&fetcherStub{})
	ctx := context.Background()
	folder, err := svc.CreateFolder(ctx, dto.CreateFolderRequest{Name: "NLP"})
	require.NoError(t, err)

	toggled, err := svc.ToggleFolder(ctx, folder.ID)
	require.NoError(t, err)
	require.NotNil(t, toggled)
	assert.False(t, toggled.IsExpanded)

	toggled, err = svc.ToggleFolder(ctx, folder.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsExpanded)

	missing, err := svc.ToggleFolder(ctx, "folder-404")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSetActive(t *testing.T) {
	svc, _ := newChannelServiceForTest(&fetcherStub{})
	ctx := context.Background()
	a := addChannel(t, svc, "A", nil)
	addChannel(t, svc, "B", nil)

	require.NoError(t, svc.SetActive(ctx, &a.ID))
	ws, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, a.ID, *ws.ActiveID)

	err = svc.SetActive(ctx, strPtr("channel-404"))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.SetActive(ctx, nil))
	ws, err = svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, ws.ActiveID)
}
