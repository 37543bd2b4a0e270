package ui

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/csams/podcast-admin/internal/api"
	"github.com/csams/podcast-admin/internal/listing"
	"github.com/csams/podcast-admin/internal/models"
	"github.com/csams/podcast-admin/internal/notify"
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// Backend is the remote side of the admin desk.
type Backend interface {
	listing.Source
	Chat(ctx context.Context, message string) (*models.ChatReply, error)
}

// Options configures an App.
type Options struct {
	List                listing.Options
	NotificationTimeout time.Duration
}

type App struct {
	screen   tcell.Screen
	quit     chan struct{}
	quitOnce sync.Once
	ctx      context.Context
	cancel   context.CancelFunc

	mode        Mode
	currentView View
	backend     Backend
	controller  *listing.Controller
	notices     *notify.Center

	episodes      *EpisodeListView
	chat          *ChatView
	search        *LineInput
	helpDialog    *HelpDialog
	confirmDialog *ConfirmationDialog
	editDialog    *EditDialog

	// Pages arrive from the controller on arbitrary goroutines and are
	// applied on the event goroutine.
	pageMu        sync.Mutex
	pendingPage   *listing.Page
	pageScheduled bool
	staggerStep   time.Duration
}

type Mode int

const (
	ModeNormal Mode = iota
	ModeSearch
)

type View interface {
	Draw(s tcell.Screen)
	HandleKey(ev *tcell.EventKey) bool
}

// funcEvent runs fn on the event goroutine.
type funcEvent struct {
	tcell.EventTime
	fn func()
}

func NewApp(backend Backend, opts Options) *App {
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		quit:          make(chan struct{}),
		ctx:           ctx,
		cancel:        cancel,
		mode:          ModeNormal,
		backend:       backend,
		notices:       notify.NewCenter(opts.NotificationTimeout),
		episodes:      NewEpisodeListView(),
		search:        NewLineInput(),
		helpDialog:    NewHelpDialog(),
		confirmDialog: NewConfirmationDialog(),
		staggerStep:   opts.List.StaggerStep,
	}
	if a.staggerStep <= 0 {
		a.staggerStep = listing.DefaultStaggerStep
	}
	a.chat = NewChatView(a.sendChat)
	a.editDialog = NewEditDialog(a.submitEdit)
	a.currentView = a.episodes
	a.controller = listing.NewController(backend, a, a, a, opts.List)
	return a
}

// Run takes over the terminal until the user quits or the process is
// interrupted.
func (a *App) Run() error {
	s, err := tcell.NewScreen()
	if err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Println("Received interrupt signal, shutting down...")
			a.Quit()
		case <-a.quit:
		}
	}()

	return a.RunScreen(s)
}

// RunScreen runs the app on s, which it initializes and finalizes.
func (a *App) RunScreen(s tcell.Screen) error {
	if err := s.Init(); err != nil {
		return err
	}
	a.screen = s
	defer func() {
		a.shutdown()
		s.Fini()
	}()

	s.SetStyle(baseStyle())
	s.Clear()

	a.notices.OnChange(func() { a.post(nil) })

	go a.handleEvents()
	go func() {
		if err := a.controller.Load(a.ctx); err != nil {
			log.Printf("Initial load failed: %v", err)
		}
	}()
	a.draw()

	<-a.quit
	log.Println("Shutdown complete")
	return nil
}

// Quit stops the event loop. It is safe to call more than once.
func (a *App) Quit() {
	a.quitOnce.Do(func() {
		close(a.quit)
		if a.screen != nil {
			a.screen.PostEvent(tcell.NewEventInterrupt(nil))
		}
	})
}

func (a *App) shutdown() {
	a.cancel()
	a.controller.Close()
	a.notices.Close()
}

// post schedules fn on the event goroutine followed by a redraw. A nil fn
// only redraws.
func (a *App) post(fn func()) {
	if a.screen == nil {
		return
	}
	select {
	case <-a.quit:
		return
	default:
	}
	ev := &funcEvent{fn: fn}
	ev.SetEventNow()
	if err := a.screen.PostEvent(ev); err != nil {
		// Queue full; never block the caller, which may hold the
		// controller's lock.
		go a.screen.PostEventWait(ev)
	}
}

// Render implements listing.Renderer. Only the latest page is kept.
func (a *App) Render(p listing.Page) {
	a.pageMu.Lock()
	a.pendingPage = &p
	scheduled := a.pageScheduled
	a.pageScheduled = true
	a.pageMu.Unlock()
	if !scheduled {
		a.post(a.applyPage)
	}
}

func (a *App) applyPage() {
	a.pageMu.Lock()
	p := a.pendingPage
	a.pendingPage = nil
	a.pageScheduled = false
	a.pageMu.Unlock()
	if p == nil {
		return
	}
	entering := a.episodes.SetPage(*p)
	if entering <= 0 {
		return
	}
	// Redraw once per stagger step so entering cards appear one by one.
	for d := a.staggerStep; d <= entering+a.staggerStep; d += a.staggerStep {
		time.AfterFunc(d, func() { a.post(nil) })
	}
}

// Notify implements listing.Notifier.
func (a *App) Notify(kind notify.Kind, message string) {
	a.notices.Push(kind, message)
}

// Confirm implements listing.Confirmer. It blocks until the dialog is
// answered, ctx is done or the app quits.
func (a *App) Confirm(ctx context.Context, title, message string) bool {
	answer := make(chan bool, 1)
	a.post(func() {
		a.confirmDialog.Show(title, message,
			func() { answer <- true },
			func() { answer <- false })
	})
	select {
	case yes := <-answer:
		return yes
	case <-ctx.Done():
	case <-a.quit:
	}
	a.post(a.confirmDialog.Cancel)
	return false
}

func (a *App) submitEdit(index int, fields models.EpisodeFields) {
	// The list may have changed since the form was opened.
	if i, ok := a.episodes.IndexOf(a.editDialog.EpisodeID()); ok {
		index = i
	}
	go func() {
		err := a.controller.SubmitEdit(a.ctx, index, fields)
		a.post(func() { a.editDialog.Settle(err == nil) })
	}()
}

func (a *App) sendChat(message string) {
	go func() {
		reply, err := a.backend.Chat(a.ctx, message)
		a.post(func() {
			if err != nil {
				log.Printf("Chat request failed: %v", err)
				a.chat.AddError(chatErrorText(err))
				return
			}
			a.chat.AddReply(reply)
		})
	}()
}

func chatErrorText(err error) string {
	if api.IsNetwork(err) {
		return "Connection error: could not reach the server"
	}
	if msg := api.RemoteMessage(err); msg != "" {
		return msg
	}
	return "The assistant could not answer"
}

func (a *App) handleEvents() {
	// Create a channel for screen events
	eventChan := make(chan tcell.Event)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				close(eventChan)
				return
			}
			select {
			case eventChan <- ev:
			case <-a.quit:
				return
			}
		}
	}()

	for {
		select {
		case <-a.quit:
			return
		case ev, ok := <-eventChan:
			if !ok {
				// Channel closed, screen might be finalized
				return
			}
			switch ev := ev.(type) {
			case *tcell.EventResize:
				a.screen.Sync()
				a.draw()
			case *tcell.EventKey:
				if a.handleKey(ev) {
					a.draw()
				}
			case *funcEvent:
				if ev.fn != nil {
					ev.fn()
				}
				a.draw()
			case *tcell.EventInterrupt:
				return
			}
		}
	}
}

func (a *App) handleKey(ev *tcell.EventKey) bool {
	// Modal dialogs take precedence over all other input
	if a.confirmDialog.IsVisible() {
		return a.confirmDialog.HandleKey(ev)
	}
	if a.helpDialog.IsVisible() {
		return a.helpDialog.HandleKey(ev)
	}
	if a.editDialog.IsVisible() {
		return a.editDialog.HandleKey(ev)
	}

	if ev.Key() == tcell.KeyCtrlC {
		a.Quit()
		return false
	}

	if a.currentView == a.chat {
		if ev.Key() == tcell.KeyEscape {
			a.currentView = a.episodes
			return true
		}
		return a.chat.HandleKey(ev)
	}

	if a.mode == ModeSearch {
		return a.handleSearchKey(ev)
	}

	if ev.Key() == tcell.KeyRune {
		switch ev.Rune() {
		case 'q':
			a.Quit()
			return false
		case '?':
			a.helpDialog.Show()
			return true
		case '/':
			a.mode = ModeSearch
			a.search.SetText(a.episodes.Page().Filter)
			return true
		case 'm':
			a.loadMore()
			return true
		case 'e':
			if card, ok := a.episodes.Selected(); ok && !card.Busy {
				a.editDialog.Show(card.Index, card.Episode)
			}
			return true
		case 'd':
			if card, ok := a.episodes.Selected(); ok && !card.Busy {
				go a.controller.SubmitDelete(a.ctx, card.Index)
			}
			return true
		case 'r':
			go a.controller.Retry(a.ctx)
			return true
		case 'c':
			a.currentView = a.chat
			return true
		case 'x':
			a.notices.DismissLatest()
			return true
		}
	}
	return a.episodes.HandleKey(ev)
}

func (a *App) handleSearchKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEnter:
		a.controller.Flush()
		a.mode = ModeNormal
		return true
	case tcell.KeyEscape:
		a.mode = ModeNormal
		return true
	}
	if a.search.HandleKey(ev) {
		a.controller.Search(a.search.Text())
		return true
	}
	return false
}

func (a *App) loadMore() {
	p := a.episodes.Page()
	if !p.ShowLoadMore {
		return
	}
	go func() {
		if err := a.controller.LoadMore(a.ctx); err != nil && !errors.Is(err, listing.ErrLoadInProgress) {
			log.Printf("Load more interrupted: %v", err)
		}
	}()
}

func (a *App) draw() {
	w, h := a.screen.Size()
	style := baseStyle()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a.screen.SetContent(x, y, ' ', nil, style)
		}
	}

	a.currentView.Draw(a.screen)
	a.drawStatusBar()
	drawToasts(a.screen, a.notices.Active())

	a.editDialog.Draw(a.screen)
	a.helpDialog.Draw(a.screen)
	a.confirmDialog.Draw(a.screen)

	a.screen.Show()
}

func (a *App) drawStatusBar() {
	w, h := a.screen.Size()
	style := tcell.StyleDefault.Background(ColorBgHighlight).Foreground(ColorFg)

	for x := 0; x < w; x++ {
		a.screen.SetContent(x, h-1, ' ', nil, style)
	}

	hint := "? help"
	switch {
	case a.currentView == a.chat:
		drawText(a.screen, 0, h-1, style, "CHAT")
		hint = "Esc back · Enter send"
	case a.mode == ModeSearch:
		drawText(a.screen, 0, h-1, style, "/")
		a.search.Draw(a.screen, 1, h-1, w/2, style, true)
		hint = "Enter apply · Esc close"
	default:
		mode := "NORMAL"
		if f := a.episodes.Page().Filter; f != "" {
			mode += " /" + f
		}
		drawText(a.screen, 0, h-1, style, mode)
	}
	drawText(a.screen, w-runewidth.StringWidth(hint)-1, h-1, style.Foreground(ColorDimmed), hint)
}
