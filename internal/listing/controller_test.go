package listing

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/csams/podcast-admin/internal/api"
	"github.com/csams/podcast-admin/internal/models"
	"github.com/csams/podcast-admin/internal/notify"
)

type fakeSource struct {
	mu        sync.Mutex
	episodes  []*models.Episode
	loadErr   error
	editErr   error
	deleteErr error
	edits     []int
	deletes   []int
	block     chan struct{}
	started   int
}

func (f *fakeSource) Episodes(ctx context.Context) ([]*models.Episode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	out := make([]*models.Episode, len(f.episodes))
	for i, ep := range f.episodes {
		cp := *ep
		out[i] = &cp
	}
	return out, nil
}

func (f *fakeSource) EditEpisode(ctx context.Context, index int, fields models.EpisodeFields) error {
	f.mu.Lock()
	f.started++
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, index)
	if f.editErr == nil && index >= 0 && index < len(f.episodes) {
		f.episodes[index].Apply(fields)
	}
	return f.editErr
}

func (f *fakeSource) DeleteEpisode(ctx context.Context, index int) error {
	f.mu.Lock()
	f.started++
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, index)
	if f.deleteErr == nil && index >= 0 && index < len(f.episodes) {
		f.episodes = append(f.episodes[:index], f.episodes[index+1:]...)
	}
	return f.deleteErr
}

// calls reports how many edits and deletes have reached the source.
func (f *fakeSource) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started
}

func (f *fakeSource) titles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.episodes))
	for i, ep := range f.episodes {
		out[i] = ep.Title
	}
	return out
}

type recorder struct {
	mu    sync.Mutex
	pages []Page
}

func (r *recorder) Render(p Page) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages = append(r.pages, p)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pages)
}

func (r *recorder) last() Page {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pages[len(r.pages)-1]
}

func (r *recorder) since(n int) []Page {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Page, len(r.pages)-n)
	copy(out, r.pages[n:])
	return out
}

type message struct {
	kind notify.Kind
	text string
}

type notifier struct {
	mu       sync.Mutex
	messages []message
}

func (n *notifier) Notify(kind notify.Kind, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message{kind, text})
}

func (n *notifier) all() []message {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]message, len(n.messages))
	copy(out, n.messages)
	return out
}

type confirmer struct {
	answer bool
	asked  int
	before func()
}

func (c *confirmer) Confirm(ctx context.Context, title, msg string) bool {
	c.asked++
	if c.before != nil {
		c.before()
	}
	return c.answer
}

func episodes(n int) []*models.Episode {
	out := make([]*models.Episode, n)
	for i := range out {
		out[i] = &models.Episode{
			Title:       fmt.Sprintf("Episode %d", i),
			Description: fmt.Sprintf("About topic %d", i),
			Date:        "2024-01-01",
			Duration:    "30:00",
			ImagePath:   fmt.Sprintf("ep%d.webp", i),
			AudioLink:   fmt.Sprintf("https://example.com/%d.mp3", i),
		}
	}
	return out
}

func editFields(title string) models.EpisodeFields {
	return models.EpisodeFields{
		Title: title, Date: "2024-02-02", Duration: "10:00",
		Description: "changed", ImagePath: "new.webp", AudioLink: "https://example.com/new.mp3",
	}
}

type harness struct {
	source    *fakeSource
	renderer  *recorder
	notifier  *notifier
	confirmer *confirmer
	ctrl      *Controller
}

func newHarness(t *testing.T, n int, opts Options) *harness {
	t.Helper()
	h := &harness{
		source:    &fakeSource{episodes: episodes(n)},
		renderer:  &recorder{},
		notifier:  &notifier{},
		confirmer: &confirmer{answer: true},
	}
	h.ctrl = NewController(h.source, h.renderer, h.notifier, h.confirmer, opts)
	t.Cleanup(h.ctrl.Close)
	if err := h.ctrl.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return h
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("Timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestController_LoadRendersLoadingThenCards(t *testing.T) {
	h := newHarness(t, 10, Options{})

	pages := h.renderer.since(0)
	if len(pages) != 2 {
		t.Fatalf("Expected 2 renders, got %d", len(pages))
	}
	if pages[0].State != StateLoading {
		t.Errorf("Expected loading state first, got %v", pages[0].State)
	}
	last := pages[1]
	if last.State != StateCards || len(last.Cards) != 6 || !last.ShowLoadMore {
		t.Errorf("Expected 6 cards with load-more, got %d cards (%v)", len(last.Cards), last.State)
	}
	if h.ctrl.Total() != 10 {
		t.Errorf("Expected total 10, got %d", h.ctrl.Total())
	}
}

func TestController_LoadFailureShowsErrorAndRetry(t *testing.T) {
	source := &fakeSource{loadErr: &api.NetworkError{Op: "episodes", Err: errors.New("refused")}}
	r := &recorder{}
	ctrl := NewController(source, r, &notifier{}, &confirmer{}, Options{})
	defer ctrl.Close()

	if err := ctrl.Load(context.Background()); err == nil {
		t.Fatal("Expected load error")
	}
	page := r.last()
	if page.State != StateError || page.Error == "" {
		t.Errorf("Expected error state with message, got %+v", page)
	}

	source.mu.Lock()
	source.loadErr = nil
	source.episodes = episodes(2)
	source.mu.Unlock()

	if err := ctrl.Retry(context.Background()); err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if r.last().State != StateCards || len(r.last().Cards) != 2 {
		t.Errorf("Expected cards after retry, got %+v", r.last())
	}
}

func TestController_SearchDebounce(t *testing.T) {
	h := newHarness(t, 12, Options{Debounce: 150 * time.Millisecond})
	before := h.renderer.count()

	// Keystrokes at t=0, 25, 50, 150ms; the window never idles for 150ms.
	h.ctrl.Search("E")
	time.Sleep(25 * time.Millisecond)
	h.ctrl.Search("Ep")
	time.Sleep(25 * time.Millisecond)
	h.ctrl.Search("Epi")
	time.Sleep(100 * time.Millisecond)
	h.ctrl.Search("  episode 1  ")

	waitFor(t, "debounced render", func() bool { return h.renderer.count() > before })
	time.Sleep(300 * time.Millisecond)

	pages := h.renderer.since(before)
	if len(pages) != 1 {
		t.Fatalf("Expected exactly one render, got %d", len(pages))
	}
	if pages[0].Filter != "episode 1" {
		t.Errorf("Expected last keystroke value, got %q", pages[0].Filter)
	}
	// "Episode 1", "Episode 10", "Episode 11"
	if len(pages[0].Cards) != 3 {
		t.Errorf("Expected 3 matches, got %d", len(pages[0].Cards))
	}
}

func TestController_SearchResetsVisibleCount(t *testing.T) {
	h := newHarness(t, 20, Options{})

	if err := h.ctrl.LoadMore(context.Background()); err != nil {
		t.Fatalf("LoadMore failed: %v", err)
	}
	if got := h.ctrl.View().VisibleCount; got != 12 {
		t.Fatalf("Expected 12 visible, got %d", got)
	}

	h.ctrl.Search("episode")
	h.ctrl.Flush()

	if got := h.ctrl.View().VisibleCount; got != 6 {
		t.Errorf("Expected reset to 6, got %d", got)
	}
	if got := len(h.renderer.last().Cards); got != 20 {
		t.Errorf("Expected every match while filtering, got %d", got)
	}

	h.ctrl.Search("")
	h.ctrl.Flush()
	if page := h.renderer.last(); len(page.Cards) != 6 || !page.ShowLoadMore {
		t.Errorf("Expected paginated view after clearing the filter, got %d cards", len(page.Cards))
	}
}

func TestController_VisibleCountOnlyChangesOnLoadMoreAndSearch(t *testing.T) {
	h := newHarness(t, 20, Options{})
	ctx := context.Background()

	_ = h.ctrl.SubmitEdit(ctx, 0, editFields("x"))
	_ = h.ctrl.SubmitDelete(ctx, 0)
	_ = h.ctrl.Load(ctx)

	if got := h.ctrl.View().VisibleCount; got != 6 {
		t.Errorf("Expected 6 after edit/delete/reload, got %d", got)
	}

	for i := 1; i <= 3; i++ {
		_ = h.ctrl.LoadMore(ctx)
		if got := h.ctrl.View().VisibleCount; got != 6+6*i {
			t.Errorf("Expected %d, got %d", 6+6*i, got)
		}
	}
}

func TestController_LoadMoreSingleFlight(t *testing.T) {
	h := newHarness(t, 20, Options{LoadMoreDelay: 100 * time.Millisecond})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- h.ctrl.LoadMore(ctx) }()
	waitFor(t, "load more to start", h.ctrl.Loading)

	if err := h.ctrl.LoadMore(ctx); !errors.Is(err, ErrLoadInProgress) {
		t.Errorf("Expected ErrLoadInProgress, got %v", err)
	}
	if !h.renderer.last().LoadingMore {
		t.Error("Expected loading-more state to be rendered")
	}

	if err := <-done; err != nil {
		t.Fatalf("LoadMore failed: %v", err)
	}
	if got := h.ctrl.View().VisibleCount; got != 12 {
		t.Errorf("Expected a single increment to 12, got %d", got)
	}
	if h.ctrl.Loading() {
		t.Error("Expected latch to be released")
	}
}

func TestController_LoadMoreCancelled(t *testing.T) {
	h := newHarness(t, 20, Options{LoadMoreDelay: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := h.ctrl.LoadMore(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if h.ctrl.Loading() || h.ctrl.View().VisibleCount != 6 {
		t.Error("Expected latch released and no increment after cancel")
	}
}

func TestController_LoadMoreHidesButtonAtEnd(t *testing.T) {
	h := newHarness(t, 8, Options{})

	_ = h.ctrl.LoadMore(context.Background())

	page := h.renderer.last()
	if len(page.Cards) != 8 || page.ShowLoadMore {
		t.Errorf("Expected all 8 cards and no load-more, got %d (%v)", len(page.Cards), page.ShowLoadMore)
	}
}

func TestController_SubmitEditSuccess(t *testing.T) {
	h := newHarness(t, 4, Options{})
	id := h.ctrl.Snapshot()[2].ID

	if err := h.ctrl.SubmitEdit(context.Background(), 2, editFields("Nuevo título")); err != nil {
		t.Fatalf("SubmitEdit failed: %v", err)
	}

	got := h.ctrl.Snapshot()[2]
	if got.Title != "Nuevo título" || got.ID != id {
		t.Errorf("Expected merged fields with same ID, got %+v", got)
	}
	if h.source.edits[0] != 2 {
		t.Errorf("Expected request for index 2, got %v", h.source.edits)
	}
	msgs := h.notifier.all()
	if len(msgs) != 1 || msgs[0].kind != notify.KindSuccess {
		t.Errorf("Expected one success notification, got %+v", msgs)
	}
}

func TestController_SubmitEditFailureLeavesCollectionUntouched(t *testing.T) {
	testCases := []struct {
		name string
		err  error
	}{
		{"network", &api.NetworkError{Op: "edit", Err: errors.New("reset")}},
		{"remote", &api.RemoteError{Op: "edit", Status: 500, Message: "Error al guardar episodio."}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, 4, Options{})
			h.source.editErr = tc.err
			before := h.ctrl.Snapshot()

			if err := h.ctrl.SubmitEdit(context.Background(), 1, editFields("nope")); err == nil {
				t.Fatal("Expected error")
			}

			if !reflect.DeepEqual(before, h.ctrl.Snapshot()) {
				t.Error("Expected collection to be identical after failed edit")
			}
			msgs := h.notifier.all()
			if len(msgs) != 1 || msgs[0].kind != notify.KindError {
				t.Errorf("Expected one error notification, got %+v", msgs)
			}
			for _, card := range h.renderer.last().Cards {
				if card.Busy {
					t.Error("Expected busy mark cleared after settle")
				}
			}
		})
	}
}

func TestController_SubmitEditValidation(t *testing.T) {
	h := newHarness(t, 2, Options{})
	fields := editFields("")

	err := h.ctrl.SubmitEdit(context.Background(), 0, fields)

	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected validation error, got %v", err)
	}
	if len(h.source.edits) != 0 {
		t.Error("Expected no request for invalid fields")
	}
	if msgs := h.notifier.all(); len(msgs) != 1 || msgs[0].kind != notify.KindError {
		t.Errorf("Expected one error notification, got %+v", msgs)
	}
}

func TestController_SubmitEditShowsBusyWhileSaving(t *testing.T) {
	h := newHarness(t, 3, Options{})
	h.source.block = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- h.ctrl.SubmitEdit(context.Background(), 1, editFields("x")) }()

	waitFor(t, "busy render", func() bool {
		page := h.ctrl.Page()
		return len(page.Cards) > 1 && page.Cards[1].Busy
	})
	close(h.source.block)
	if err := <-done; err != nil {
		t.Fatalf("SubmitEdit failed: %v", err)
	}
	if h.ctrl.Page().Cards[1].Busy {
		t.Error("Expected busy cleared")
	}
}

func TestController_SubmitEditMergesByIdentityAfterShift(t *testing.T) {
	h := newHarness(t, 4, Options{})
	target := h.ctrl.Snapshot()[2].ID
	h.source.block = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- h.ctrl.SubmitEdit(context.Background(), 2, editFields("edited")) }()
	waitFor(t, "edit in flight", func() bool { return h.ctrl.Page().Cards[2].Busy })

	// Remove an earlier episode while the edit is outstanding.
	h.ctrl.mu.Lock()
	_ = h.ctrl.collection.RemoveAt(0)
	h.ctrl.mu.Unlock()

	close(h.source.block)
	if err := <-done; err != nil {
		t.Fatalf("SubmitEdit failed: %v", err)
	}

	snap := h.ctrl.Snapshot()
	if snap[1].ID != target || snap[1].Title != "edited" {
		t.Errorf("Expected edit applied to the shifted episode, got %+v", snap[1])
	}
}

func TestController_SubmitDeleteDeclined(t *testing.T) {
	h := newHarness(t, 3, Options{})
	h.confirmer.answer = false

	if err := h.ctrl.SubmitDelete(context.Background(), 0); err != nil {
		t.Fatalf("Expected nil for declined delete, got %v", err)
	}
	if h.confirmer.asked != 1 {
		t.Errorf("Expected one confirmation prompt, got %d", h.confirmer.asked)
	}
	if len(h.source.deletes) != 0 || h.ctrl.Total() != 3 {
		t.Error("Expected no request and no change when declined")
	}
}

func TestController_SubmitDeleteShiftsIndices(t *testing.T) {
	h := newHarness(t, 5, Options{})
	before := h.ctrl.Snapshot()

	if err := h.ctrl.SubmitDelete(context.Background(), 1); err != nil {
		t.Fatalf("SubmitDelete failed: %v", err)
	}

	after := h.ctrl.Snapshot()
	if len(after) != len(before)-1 {
		t.Fatalf("Expected length %d, got %d", len(before)-1, len(after))
	}
	if after[0] != before[0] {
		t.Error("Expected episode 0 unchanged")
	}
	for i := 2; i < len(before); i++ {
		if after[i-1] != before[i] {
			t.Errorf("Expected episode %d at %d", i, i-1)
		}
	}
	if h.source.deletes[0] != 1 {
		t.Errorf("Expected request for index 1, got %v", h.source.deletes)
	}
}

func TestController_SubmitDeleteKeepsFilter(t *testing.T) {
	h := newHarness(t, 12, Options{})
	h.ctrl.Search("episode 1")
	h.ctrl.Flush()

	// Matches: Episode 1, Episode 10, Episode 11.
	if err := h.ctrl.SubmitDelete(context.Background(), 10); err != nil {
		t.Fatalf("SubmitDelete failed: %v", err)
	}

	page := h.renderer.last()
	if page.Filter != "episode 1" {
		t.Errorf("Expected filter preserved, got %q", page.Filter)
	}
	if len(page.Cards) != 2 {
		t.Fatalf("Expected 2 remaining matches, got %d", len(page.Cards))
	}
	if page.Cards[1].Index != 10 || page.Cards[1].Episode.Title != "Episode 11" {
		t.Errorf("Expected Episode 11 shifted to index 10, got %+v", page.Cards[1])
	}
}

func TestController_SubmitDeleteFailure(t *testing.T) {
	h := newHarness(t, 3, Options{})
	h.source.deleteErr = &api.RemoteError{Op: "delete", Status: 400, Message: "Índice inválido"}
	before := h.ctrl.Snapshot()

	if err := h.ctrl.SubmitDelete(context.Background(), 2); err == nil {
		t.Fatal("Expected error")
	}

	if !reflect.DeepEqual(before, h.ctrl.Snapshot()) {
		t.Error("Expected collection unchanged after failed delete")
	}
	msgs := h.notifier.all()
	if len(msgs) != 1 || msgs[0].kind != notify.KindError || msgs[0].text != "Could not delete episode: Índice inválido" {
		t.Errorf("Unexpected notifications: %+v", msgs)
	}
}

func TestController_SubmitDeleteResolvesAfterConfirm(t *testing.T) {
	h := newHarness(t, 4, Options{})
	target := h.ctrl.Snapshot()[3].ID
	h.confirmer.before = func() {
		h.ctrl.mu.Lock()
		_ = h.ctrl.collection.RemoveAt(0)
		h.ctrl.mu.Unlock()
	}

	if err := h.ctrl.SubmitDelete(context.Background(), 3); err != nil {
		t.Fatalf("SubmitDelete failed: %v", err)
	}

	if h.source.deletes[0] != 2 {
		t.Errorf("Expected request for the shifted index 2, got %v", h.source.deletes)
	}
	for _, ep := range h.ctrl.Snapshot() {
		if ep.ID == target {
			t.Error("Expected target episode removed")
		}
	}
}

func localTitles(c *Controller) []string {
	snap := c.Snapshot()
	out := make([]string, len(snap))
	for i, ep := range snap {
		out[i] = ep.Title
	}
	return out
}

func TestController_OverlappingDeletesStayInSync(t *testing.T) {
	h := newHarness(t, 8, Options{})
	h.source.block = make(chan struct{})
	ctx := context.Background()

	first := make(chan error, 1)
	go func() { first <- h.ctrl.SubmitDelete(ctx, 2) }()
	waitFor(t, "first delete in flight", func() bool { return h.source.calls() == 1 })

	second := make(chan error, 1)
	go func() { second <- h.ctrl.SubmitDelete(ctx, 5) }()
	waitFor(t, "second delete queued", func() bool { return h.ctrl.Page().Cards[5].Busy })

	close(h.source.block)
	if err := <-first; err != nil {
		t.Fatalf("First delete failed: %v", err)
	}
	if err := <-second; err != nil {
		t.Fatalf("Second delete failed: %v", err)
	}

	h.source.mu.Lock()
	deletes := append([]int(nil), h.source.deletes...)
	h.source.mu.Unlock()
	if !reflect.DeepEqual(deletes, []int{2, 4}) {
		t.Errorf("Expected positions [2 4], got %v", deletes)
	}
	if local, remote := localTitles(h.ctrl), h.source.titles(); !reflect.DeepEqual(local, remote) {
		t.Errorf("Expected local %v to match remote %v", local, remote)
	}
}

func TestController_EditQueuedBehindDeleteUsesShiftedPosition(t *testing.T) {
	h := newHarness(t, 6, Options{})
	h.source.block = make(chan struct{})
	ctx := context.Background()

	del := make(chan error, 1)
	go func() { del <- h.ctrl.SubmitDelete(ctx, 0) }()
	waitFor(t, "delete in flight", func() bool { return h.source.calls() == 1 })

	edit := make(chan error, 1)
	go func() { edit <- h.ctrl.SubmitEdit(ctx, 4, editFields("edited")) }()
	waitFor(t, "edit queued", func() bool { return h.ctrl.Page().Cards[4].Busy })

	close(h.source.block)
	if err := <-del; err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := <-edit; err != nil {
		t.Fatalf("Edit failed: %v", err)
	}

	h.source.mu.Lock()
	edits := append([]int(nil), h.source.edits...)
	h.source.mu.Unlock()
	if !reflect.DeepEqual(edits, []int{3}) {
		t.Errorf("Expected the edit sent for position 3, got %v", edits)
	}
	local, remote := localTitles(h.ctrl), h.source.titles()
	if !reflect.DeepEqual(local, remote) || local[3] != "edited" {
		t.Errorf("Expected local %v to match remote %v", local, remote)
	}
}

func TestController_QueuedDeleteCancelled(t *testing.T) {
	h := newHarness(t, 3, Options{})
	h.source.block = make(chan struct{})
	defer close(h.source.block)

	go h.ctrl.SubmitDelete(context.Background(), 0)
	waitFor(t, "delete in flight", func() bool { return h.source.calls() == 1 })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.ctrl.SubmitDelete(ctx, 1) }()
	waitFor(t, "delete queued", func() bool { return h.ctrl.Page().Cards[1].Busy })
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if h.ctrl.Page().Cards[1].Busy {
		t.Error("Expected the busy mark cleared")
	}
}

func TestController_OutOfRangeIndex(t *testing.T) {
	h := newHarness(t, 2, Options{})
	ctx := context.Background()

	if err := h.ctrl.SubmitEdit(ctx, 7, editFields("x")); !errors.Is(err, models.ErrIndexOutOfRange) {
		t.Errorf("Expected ErrIndexOutOfRange on edit, got %v", err)
	}
	if err := h.ctrl.SubmitDelete(ctx, -1); !errors.Is(err, models.ErrIndexOutOfRange) {
		t.Errorf("Expected ErrIndexOutOfRange on delete, got %v", err)
	}
	if h.confirmer.asked != 0 {
		t.Error("Expected no prompt for a missing episode")
	}
}

func TestDescribe(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected string
	}{
		{"network", &api.NetworkError{Op: "x", Err: errors.New("dial")}, "Connection error: could not reach the server"},
		{"remote with message", &api.RemoteError{Op: "x", Status: 500, Message: "boom"}, "Could not save: boom"},
		{"remote without message", &api.RemoteError{Op: "x", Status: 500}, "Could not save"},
		{"cancelled", context.Canceled, "Could not save: cancelled"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := describe("Could not save", tc.err); got != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if opts.Debounce != 300*time.Millisecond || opts.PageSize != 6 || opts.LoadMoreDelay != 500*time.Millisecond {
		t.Errorf("Unexpected defaults: %+v", opts)
	}
}
