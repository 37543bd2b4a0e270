package listing

import (
	"time"

	"github.com/csams/podcast-admin/internal/models"
)

// State is what the episode area currently shows.
type State int

const (
	StateLoading State = iota
	StateError
	StateEmpty
	StateCards
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateError:
		return "error"
	case StateEmpty:
		return "empty"
	case StateCards:
		return "cards"
	default:
		return "unknown"
	}
}

// ViewState is the filter and pagination state of the list.
type ViewState struct {
	FilterText   string
	VisibleCount int
}

// Card is one rendered episode.
type Card struct {
	// Index is the episode's position in the full collection.
	Index int
	// Position is the card's place on screen, used for the stagger.
	Position int
	Delay    time.Duration
	Episode  models.Episode
	Busy     bool
}

// Page is a complete render of the list.
type Page struct {
	State        State
	Cards        []Card
	Total        int
	Matched      int
	Filter       string
	VisibleCount int
	ShowLoadMore bool
	LoadingMore  bool
	Error        string
}

// RenderOptions carries presentation inputs that are not part of ViewState.
type RenderOptions struct {
	StaggerStep time.Duration
	// Busy marks episode IDs with a request in flight.
	Busy        map[string]bool
	LoadingMore bool
}

// Render builds the page for a collection and view. With a filter every
// match is shown; without one the first VisibleCount episodes are.
func Render(c *models.Collection, v ViewState, opts RenderOptions) Page {
	items := c.Items()
	filtered := make([]int, 0, len(items))
	for i, ep := range items {
		if v.FilterText == "" || Matches(ep, v.FilterText) {
			filtered = append(filtered, i)
		}
	}

	shown := filtered
	if v.FilterText == "" && v.VisibleCount < len(filtered) {
		shown = filtered[:max(v.VisibleCount, 0)]
	}

	page := Page{
		Total:        len(items),
		Matched:      len(filtered),
		Filter:       v.FilterText,
		VisibleCount: v.VisibleCount,
		LoadingMore:  opts.LoadingMore,
	}
	if len(shown) == 0 {
		page.State = StateEmpty
		return page
	}

	page.State = StateCards
	page.Cards = make([]Card, 0, len(shown))
	for pos, idx := range shown {
		ep := items[idx]
		page.Cards = append(page.Cards, Card{
			Index:    idx,
			Position: pos,
			Delay:    time.Duration(pos) * opts.StaggerStep,
			Episode:  *ep,
			Busy:     opts.Busy[ep.ID],
		})
	}
	page.ShowLoadMore = v.FilterText == "" && v.VisibleCount < len(filtered)
	return page
}
