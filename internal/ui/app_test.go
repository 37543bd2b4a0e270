package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/csams/podcast-admin/internal/api"
	"github.com/csams/podcast-admin/internal/listing"
	"github.com/csams/podcast-admin/internal/models"
	"github.com/gdamore/tcell/v2"
)

var testTitles = []string{"Alpha", "Bravo", "Charlie", "Delta", "Echo", "Foxtrot", "Golf", "Hotel"}

type fakeBackend struct {
	mu       sync.Mutex
	episodes []models.Episode
	loadErr  error
	edits    map[int]models.EpisodeFields
	deletes  []int
	reply    *models.ChatReply
	chatErr  error
	messages []string
}

func newFakeBackend() *fakeBackend {
	b := &fakeBackend{edits: make(map[int]models.EpisodeFields)}
	for _, title := range testTitles {
		b.episodes = append(b.episodes, models.Episode{
			Title:       title,
			Description: "About " + strings.ToLower(title),
			Date:        "2024-01-01",
			Duration:    "30:00",
			ImagePath:   "img/" + strings.ToLower(title) + ".jpg",
			AudioLink:   "https://example.com/" + strings.ToLower(title) + ".mp3",
		})
	}
	return b
}

func (b *fakeBackend) Episodes(ctx context.Context) ([]*models.Episode, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loadErr != nil {
		return nil, b.loadErr
	}
	out := make([]*models.Episode, len(b.episodes))
	for i := range b.episodes {
		ep := b.episodes[i]
		out[i] = &ep
	}
	return out, nil
}

func (b *fakeBackend) EditEpisode(ctx context.Context, index int, fields models.EpisodeFields) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.edits[index] = fields
	return nil
}

func (b *fakeBackend) DeleteEpisode(ctx context.Context, index int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deletes = append(b.deletes, index)
	return nil
}

func (b *fakeBackend) Chat(ctx context.Context, message string) (*models.ChatReply, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, message)
	return b.reply, b.chatErr
}

func (b *fakeBackend) setLoadErr(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loadErr = err
}

func startApp(t *testing.T, backend *fakeBackend) (*App, tcell.SimulationScreen) {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	app := NewApp(backend, Options{List: listing.Options{
		Debounce:    20 * time.Millisecond,
		StaggerStep: time.Millisecond,
	}})

	done := make(chan error, 1)
	go func() { done <- app.RunScreen(s) }()
	t.Cleanup(func() {
		app.Quit()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("App did not stop")
		}
	})
	return app, s
}

func screenText(s tcell.SimulationScreen) string {
	cells, w, h := s.GetContents()
	var b strings.Builder
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := cells[y*w+x]
			if len(c.Runes) > 0 {
				b.WriteRune(c.Runes[0])
			} else {
				b.WriteRune(' ')
			}
		}
		b.WriteRune('\n')
	}
	return b.String()
}

func waitForText(t *testing.T, s tcell.SimulationScreen, want string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(screenText(s), want) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Expected screen to contain %q, got:\n%s", want, screenText(s))
}

func waitForNoText(t *testing.T, s tcell.SimulationScreen, unwanted string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if !strings.Contains(screenText(s), unwanted) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Expected screen not to contain %q, got:\n%s", unwanted, screenText(s))
}

func pressRune(s tcell.SimulationScreen, r rune) {
	s.InjectKey(tcell.KeyRune, r, tcell.ModNone)
}

func typeKeys(s tcell.SimulationScreen, text string) {
	for _, r := range text {
		pressRune(s, r)
	}
}

func TestApp_ShowsFirstPage(t *testing.T) {
	_, s := startApp(t, newFakeBackend())

	waitForText(t, s, "Foxtrot")
	waitForText(t, s, "8 episodes")
	waitForText(t, s, "press m to load more")
	if strings.Contains(screenText(s), "Golf") {
		t.Error("Expected only the first page to be shown")
	}
}

func TestApp_LoadMore(t *testing.T) {
	_, s := startApp(t, newFakeBackend())

	waitForText(t, s, "Foxtrot")
	pressRune(s, 'm')
	waitForText(t, s, "Hotel")
	waitForNoText(t, s, "press m to load more")
}

func TestApp_Search(t *testing.T) {
	_, s := startApp(t, newFakeBackend())
	waitForText(t, s, "Foxtrot")

	pressRune(s, '/')
	typeKeys(s, "golf")
	s.InjectKey(tcell.KeyEnter, 0, tcell.ModNone)

	waitForText(t, s, "1 of 8 episodes match")
	text := screenText(s)
	if !strings.Contains(text, "Golf") || strings.Contains(text, "Alpha") {
		t.Errorf("Expected only Golf, got:\n%s", text)
	}

	pressRune(s, '/')
	s.InjectKey(tcell.KeyCtrlU, 0, tcell.ModNone)
	typeKeys(s, "zzz")
	waitForText(t, s, "No episodes match")
}

func TestApp_RetryAfterError(t *testing.T) {
	backend := newFakeBackend()
	backend.setLoadErr(&api.NetworkError{Op: "episodes", Err: errors.New("refused")})
	_, s := startApp(t, backend)

	waitForText(t, s, "Press r to retry")
	waitForText(t, s, "Connection error")

	backend.setLoadErr(nil)
	pressRune(s, 'r')
	waitForText(t, s, "Alpha")
}

func TestApp_DeleteAfterConfirmation(t *testing.T) {
	backend := newFakeBackend()
	_, s := startApp(t, backend)
	waitForText(t, s, "Alpha")

	pressRune(s, 'd')
	waitForText(t, s, "Delete episode")
	pressRune(s, 'n')
	waitForNoText(t, s, "Delete episode")

	pressRune(s, 'd')
	waitForText(t, s, "Delete episode")
	pressRune(s, 'y')
	waitForText(t, s, "Episode deleted")
	waitForText(t, s, "Golf") // the next episode slides into the first page

	backend.mu.Lock()
	defer backend.mu.Unlock()
	if len(backend.deletes) != 1 || backend.deletes[0] != 0 {
		t.Errorf("Expected one delete of index 0, got %v", backend.deletes)
	}
}

func TestApp_EditSubmit(t *testing.T) {
	backend := newFakeBackend()
	_, s := startApp(t, backend)
	waitForText(t, s, "Alpha")

	pressRune(s, 'j')
	pressRune(s, 'e')
	waitForText(t, s, "Edit: Bravo")

	s.InjectKey(tcell.KeyCtrlU, 0, tcell.ModNone)
	typeKeys(s, "Renamed")
	s.InjectKey(tcell.KeyCtrlS, 0, tcell.ModNone)

	waitForText(t, s, "Episode updated")
	waitForNoText(t, s, "Edit: ")
	waitForText(t, s, "Renamed")

	backend.mu.Lock()
	defer backend.mu.Unlock()
	got, ok := backend.edits[1]
	if !ok {
		t.Fatalf("Expected an edit of index 1, got %v", backend.edits)
	}
	if got.Title != "Renamed" || got.AudioLink != "https://example.com/bravo.mp3" {
		t.Errorf("Unexpected fields: %+v", got)
	}
}

func TestApp_Chat(t *testing.T) {
	backend := newFakeBackend()
	backend.reply = &models.ChatReply{
		Answer:  "**Hola** from the show",
		Sources: []models.Source{{Title: "Alpha", Published: "2024"}},
	}
	_, s := startApp(t, backend)
	waitForText(t, s, "Alpha")

	pressRune(s, 'c')
	waitForText(t, s, "Ask the podcast")
	typeKeys(s, "hi")
	s.InjectKey(tcell.KeyEnter, 0, tcell.ModNone)

	waitForText(t, s, "Hola from the show")
	waitForText(t, s, "▶ Alpha (2024)")

	s.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)
	waitForText(t, s, "NORMAL")

	backend.mu.Lock()
	defer backend.mu.Unlock()
	if len(backend.messages) != 1 || backend.messages[0] != "hi" {
		t.Errorf("Expected one message 'hi', got %v", backend.messages)
	}
}

func TestApp_ChatError(t *testing.T) {
	backend := newFakeBackend()
	backend.chatErr = &api.RemoteError{Op: "chat", Status: 500, Message: "assistant offline"}
	_, s := startApp(t, backend)
	waitForText(t, s, "Alpha")

	pressRune(s, 'c')
	typeKeys(s, "hi")
	s.InjectKey(tcell.KeyEnter, 0, tcell.ModNone)
	waitForText(t, s, "assistant offline")
}

func TestApp_Help(t *testing.T) {
	_, s := startApp(t, newFakeBackend())
	waitForText(t, s, "Alpha")

	pressRune(s, '?')
	waitForText(t, s, "Help - Keybindings")
	s.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)
	waitForNoText(t, s, "Help - Keybindings")
}

func TestApp_ConfirmCancelledByContext(t *testing.T) {
	app, s := startApp(t, newFakeBackend())
	waitForText(t, s, "Alpha")

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan bool, 1)
	go func() { result <- app.Confirm(ctx, "Question", "Proceed?") }()

	waitForText(t, s, "Proceed?")
	cancel()

	select {
	case yes := <-result:
		if yes {
			t.Error("Expected a cancelled confirmation to answer no")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Confirm did not return after cancel")
	}
	waitForNoText(t, s, "Proceed?")
}
