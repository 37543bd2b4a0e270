package listing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/csams/podcast-admin/internal/api"
	"github.com/csams/podcast-admin/internal/models"
	"github.com/csams/podcast-admin/internal/notify"
)

// ErrLoadInProgress is returned by LoadMore while a previous call is still
// outstanding. It is a guard, not a failure, and is never shown to the user.
var ErrLoadInProgress = errors.New("load more already in progress")

// Source is the remote episode store.
type Source interface {
	Episodes(ctx context.Context) ([]*models.Episode, error)
	EditEpisode(ctx context.Context, index int, fields models.EpisodeFields) error
	DeleteEpisode(ctx context.Context, index int) error
}

// Renderer receives every page the controller produces. It is called with
// the controller's lock held and must not call back into the Controller.
type Renderer interface {
	Render(page Page)
}

// Notifier surfaces transient messages to the user.
type Notifier interface {
	Notify(kind notify.Kind, message string)
}

// Confirmer asks the user a yes/no question and blocks until answered.
type Confirmer interface {
	Confirm(ctx context.Context, title, message string) bool
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(Page)

func (f RendererFunc) Render(p Page) { f(p) }

// Options configures a Controller. Zero values other than LoadMoreDelay take
// the defaults below.
type Options struct {
	Debounce      time.Duration
	PageSize      int
	InitialCount  int
	LoadMoreDelay time.Duration
	StaggerStep   time.Duration
}

const (
	DefaultDebounce      = 300 * time.Millisecond
	DefaultPageSize      = 6
	DefaultLoadMoreDelay = 500 * time.Millisecond
	DefaultStaggerStep   = 100 * time.Millisecond
)

func (o Options) withDefaults() Options {
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.InitialCount <= 0 {
		o.InitialCount = o.PageSize
	}
	if o.LoadMoreDelay < 0 {
		o.LoadMoreDelay = 0
	}
	if o.StaggerStep <= 0 {
		o.StaggerStep = DefaultStaggerStep
	}
	return o
}

type phase int

const (
	phaseLoading phase = iota
	phaseFailed
	phaseReady
)

// Controller owns the episode collection and the list's view state. All
// collection mutations happen after the site acknowledged them.
type Controller struct {
	source    Source
	renderer  Renderer
	notifier  Notifier
	confirmer Confirmer
	opts      Options

	mu          sync.Mutex
	collection  *models.Collection
	view        ViewState
	phase       phase
	loadErr     string
	isLoading   bool
	busy        map[string]bool
	searchTimer *time.Timer
	searchSeq   uint64
	pending     *string

	// remote is held by the one load, edit or delete talking to the site.
	// The site addresses episodes by position, so a position is only
	// resolved once every earlier change has settled.
	remote chan struct{}
}

// DefaultOptions returns the site's list behavior: 300ms debounce, pages of
// six and a half-second load-more delay.
func DefaultOptions() Options {
	return Options{
		Debounce:      DefaultDebounce,
		PageSize:      DefaultPageSize,
		InitialCount:  DefaultPageSize,
		LoadMoreDelay: DefaultLoadMoreDelay,
		StaggerStep:   DefaultStaggerStep,
	}
}

// NewController creates a controller. A zero LoadMoreDelay reveals the next
// page immediately.
func NewController(source Source, renderer Renderer, notifier Notifier, confirmer Confirmer, opts Options) *Controller {
	opts = opts.withDefaults()
	return &Controller{
		source:     source,
		renderer:   renderer,
		notifier:   notifier,
		confirmer:  confirmer,
		opts:       opts,
		collection: models.NewCollection(nil),
		view:       ViewState{VisibleCount: opts.InitialCount},
		busy:       make(map[string]bool),
		remote:     make(chan struct{}, 1),
	}
}

func (c *Controller) acquire(ctx context.Context) error {
	select {
	case c.remote <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) release() {
	<-c.remote
}

// Load fetches the whole catalogue and replaces the collection. On failure
// the error state is rendered and nothing is retried automatically.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	c.phase = phaseLoading
	c.loadErr = ""
	c.renderLocked()
	c.mu.Unlock()

	if err := c.acquire(ctx); err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.phase = phaseFailed
		c.loadErr = describe("Could not load episodes", err)
		c.renderLocked()
		return err
	}
	defer c.release()

	episodes, err := c.source.Episodes(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		log.Printf("Failed to load episodes: %v", err)
		c.phase = phaseFailed
		c.loadErr = describe("Could not load episodes", err)
		c.renderLocked()
		return err
	}
	c.collection.Replace(episodes)
	c.phase = phaseReady
	log.Printf("Loaded %d episodes", c.collection.Len())
	c.renderLocked()
	return nil
}

// Retry is the manual retry affordance of the error state.
func (c *Controller) Retry(ctx context.Context) error {
	return c.Load(ctx)
}

// Search schedules a filter change. Only the last call within the debounce
// window takes effect.
func (c *Controller) Search(text string) {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.searchTimer != nil {
		c.searchTimer.Stop()
	}
	c.searchSeq++
	seq := c.searchSeq
	c.pending = &text
	c.searchTimer = time.AfterFunc(c.opts.Debounce, func() {
		c.fireSearch(seq)
	})
}

// Flush applies a pending search immediately.
func (c *Controller) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return
	}
	if c.searchTimer != nil {
		c.searchTimer.Stop()
	}
	c.applySearchLocked()
}

func (c *Controller) fireSearch(seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// A newer keystroke replaced this timer after it had already fired.
	if seq != c.searchSeq || c.pending == nil {
		return
	}
	c.applySearchLocked()
}

func (c *Controller) applySearchLocked() {
	c.view.FilterText = *c.pending
	c.view.VisibleCount = c.opts.InitialCount
	c.pending = nil
	c.searchTimer = nil
	c.searchSeq++
	c.renderLocked()
}

// LoadMore reveals another page of episodes after the configured delay.
// While a call is outstanding further calls return ErrLoadInProgress.
func (c *Controller) LoadMore(ctx context.Context) error {
	c.mu.Lock()
	if c.isLoading {
		c.mu.Unlock()
		return ErrLoadInProgress
	}
	c.isLoading = true
	c.renderLocked()
	c.mu.Unlock()

	var err error
	if c.opts.LoadMoreDelay > 0 {
		timer := time.NewTimer(c.opts.LoadMoreDelay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			err = ctx.Err()
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.isLoading = false
	if err == nil {
		c.view.VisibleCount += c.opts.PageSize
	}
	c.renderLocked()
	return err
}

// SubmitEdit validates fields and sends them for the episode at index. The
// local entry is only updated once the site accepted the change. Edits and
// deletes run one at a time; a queued edit shows as saving while it waits.
func (c *Controller) SubmitEdit(ctx context.Context, index int, fields models.EpisodeFields) error {
	if err := models.Validate(fields); err != nil {
		c.notify(notify.KindError, "Please fill in the required fields: "+strings.Join(validationFields(err), ", "))
		return err
	}

	c.mu.Lock()
	ep := c.collection.At(index)
	if ep == nil {
		c.mu.Unlock()
		c.notify(notify.KindError, "Episode no longer exists")
		return fmt.Errorf("edit %d: %w", index, models.ErrIndexOutOfRange)
	}
	id := ep.ID
	c.busy[id] = true
	c.renderLocked()
	c.mu.Unlock()

	index, err := c.resolve(ctx, id)
	if err != nil {
		c.mu.Lock()
		delete(c.busy, id)
		c.renderLocked()
		c.mu.Unlock()
		if errors.Is(err, models.ErrIndexOutOfRange) {
			c.notify(notify.KindError, "Episode no longer exists")
		} else {
			c.notify(notify.KindError, describe("Could not update episode", err))
		}
		return fmt.Errorf("edit: %w", err)
	}
	defer c.release()

	err = c.source.EditEpisode(ctx, index, fields)

	c.mu.Lock()
	delete(c.busy, id)
	if err == nil {
		if i := c.collection.IndexOf(id); i >= 0 {
			_ = c.collection.Merge(i, fields)
		}
	}
	c.renderLocked()
	c.mu.Unlock()

	if err != nil {
		log.Printf("Failed to update episode %d: %v", index, err)
		c.notify(notify.KindError, describe("Could not update episode", err))
		return err
	}
	c.notify(notify.KindSuccess, "Episode updated")
	return nil
}

// SubmitDelete asks for confirmation and removes the episode at index on
// the site, then locally. A declined confirmation does nothing.
func (c *Controller) SubmitDelete(ctx context.Context, index int) error {
	c.mu.Lock()
	ep := c.collection.At(index)
	if ep == nil {
		c.mu.Unlock()
		c.notify(notify.KindError, "Episode no longer exists")
		return fmt.Errorf("delete %d: %w", index, models.ErrIndexOutOfRange)
	}
	id, title := ep.ID, ep.Title
	c.mu.Unlock()

	if !c.confirmer.Confirm(ctx, "Delete episode", fmt.Sprintf("Delete %q? This cannot be undone.", title)) {
		return nil
	}

	c.mu.Lock()
	c.busy[id] = true
	c.renderLocked()
	c.mu.Unlock()

	index, err := c.resolve(ctx, id)
	if err != nil {
		c.mu.Lock()
		delete(c.busy, id)
		c.renderLocked()
		c.mu.Unlock()
		if errors.Is(err, models.ErrIndexOutOfRange) {
			// Already gone, for instance after a reload.
			return nil
		}
		c.notify(notify.KindError, describe("Could not delete episode", err))
		return fmt.Errorf("delete: %w", err)
	}
	defer c.release()

	err = c.source.DeleteEpisode(ctx, index)

	c.mu.Lock()
	delete(c.busy, id)
	if err == nil {
		if i := c.collection.IndexOf(id); i >= 0 {
			_ = c.collection.RemoveAt(i)
		}
	}
	c.renderLocked()
	c.mu.Unlock()

	if err != nil {
		log.Printf("Failed to delete episode %d: %v", index, err)
		c.notify(notify.KindError, describe("Could not delete episode", err))
		return err
	}
	c.notify(notify.KindSuccess, "Episode deleted")
	return nil
}

// resolve waits for the site to be free and returns the current position of
// the episode with id. On success the caller owns remote and must release
// it.
func (c *Controller) resolve(ctx context.Context, id string) (int, error) {
	if err := c.acquire(ctx); err != nil {
		return 0, err
	}
	c.mu.Lock()
	index := c.collection.IndexOf(id)
	c.mu.Unlock()
	if index < 0 {
		c.release()
		return 0, models.ErrIndexOutOfRange
	}
	return index, nil
}

// Page returns the current render.
func (c *Controller) Page() Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pageLocked()
}

// View returns the current filter and pagination state.
func (c *Controller) View() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Snapshot returns a copy of the collection.
func (c *Controller) Snapshot() []models.Episode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.collection.Snapshot()
}

// Total is the number of episodes in the collection.
func (c *Controller) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.collection.Len()
}

// Loading reports whether a load-more is outstanding.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isLoading
}

// Episode returns a copy of the episode at index.
func (c *Controller) Episode(index int) (models.Episode, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ep := c.collection.At(index)
	if ep == nil {
		return models.Episode{}, false
	}
	return *ep, true
}

// Close cancels a pending search.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.searchTimer != nil {
		c.searchTimer.Stop()
		c.searchTimer = nil
	}
	c.pending = nil
}

func (c *Controller) pageLocked() Page {
	switch c.phase {
	case phaseLoading:
		return Page{State: StateLoading, VisibleCount: c.view.VisibleCount, Filter: c.view.FilterText}
	case phaseFailed:
		return Page{State: StateError, Error: c.loadErr, VisibleCount: c.view.VisibleCount, Filter: c.view.FilterText}
	}
	return Render(c.collection, c.view, RenderOptions{
		StaggerStep: c.opts.StaggerStep,
		Busy:        c.busy,
		LoadingMore: c.isLoading,
	})
}

func (c *Controller) renderLocked() {
	if c.renderer != nil {
		c.renderer.Render(c.pageLocked())
	}
}

func (c *Controller) notify(kind notify.Kind, message string) {
	if c.notifier != nil {
		c.notifier.Notify(kind, message)
	}
}

// describe turns a remote-call error into the text shown to the user.
func describe(prefix string, err error) string {
	if api.IsNetwork(err) {
		return "Connection error: could not reach the server"
	}
	if msg := api.RemoteMessage(err); msg != "" {
		return prefix + ": " + msg
	}
	if errors.Is(err, context.Canceled) {
		return prefix + ": cancelled"
	}
	return prefix
}

func validationFields(err error) []string {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		return verr.Fields
	}
	return []string{err.Error()}
}
