package ui

import (
	"github.com/csams/podcast-admin/internal/models"
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

type editField struct {
	label string
	input *LineInput
}

// EditDialog is the episode form. Focus cycles through the six fields and
// then the Save and Cancel buttons.
type EditDialog struct {
	visible bool
	saving  bool
	index   int
	id      string
	title   string
	fields  []editField
	focus   int

	onSubmit func(index int, fields models.EpisodeFields)
}

const (
	fieldTitle = iota
	fieldDate
	fieldDuration
	fieldDescription
	fieldImage
	fieldAudio
	focusSave
	focusCancel
	focusCount
)

func NewEditDialog(onSubmit func(index int, fields models.EpisodeFields)) *EditDialog {
	labels := []string{"Title", "Date", "Duration", "Description", "Image", "Audio link"}
	fields := make([]editField, len(labels))
	for i, l := range labels {
		fields[i] = editField{label: l, input: NewLineInput()}
	}
	return &EditDialog{fields: fields, onSubmit: onSubmit}
}

// Show opens the form for the episode at index, prefilled with its fields.
func (d *EditDialog) Show(index int, ep models.Episode) {
	d.visible = true
	d.saving = false
	d.index = index
	d.id = ep.ID
	d.title = ep.Title
	d.focus = fieldTitle
	f := ep.Fields()
	for i, v := range []string{f.Title, f.Date, f.Duration, f.Description, f.ImagePath, f.AudioLink} {
		d.fields[i].input.SetText(v)
	}
}

func (d *EditDialog) Hide() {
	d.visible = false
	d.saving = false
}

func (d *EditDialog) IsVisible() bool {
	return d.visible
}

// Index returns the collection index the form was opened for.
func (d *EditDialog) Index() int {
	return d.index
}

// EpisodeID returns the ID of the episode being edited.
func (d *EditDialog) EpisodeID() string {
	return d.id
}

// Saving reports whether a submission is in flight.
func (d *EditDialog) Saving() bool {
	return d.saving
}

// Fields returns the form contents.
func (d *EditDialog) Fields() models.EpisodeFields {
	return models.EpisodeFields{
		Title:       d.fields[fieldTitle].input.Text(),
		Date:        d.fields[fieldDate].input.Text(),
		Duration:    d.fields[fieldDuration].input.Text(),
		Description: d.fields[fieldDescription].input.Text(),
		ImagePath:   d.fields[fieldImage].input.Text(),
		AudioLink:   d.fields[fieldAudio].input.Text(),
	}
}

// Settle ends a submission. A successful save closes the form; a failed
// one leaves it open for another try.
func (d *EditDialog) Settle(ok bool) {
	d.saving = false
	if ok {
		d.Hide()
	}
}

func (d *EditDialog) submit() {
	if d.saving {
		return
	}
	d.saving = true
	if d.onSubmit != nil {
		d.onSubmit(d.index, d.Fields())
	}
}

func (d *EditDialog) HandleKey(ev *tcell.EventKey) bool {
	if !d.visible {
		return false
	}
	if d.saving {
		// Only closing is allowed while the request runs; the result still
		// lands in the list.
		if ev.Key() == tcell.KeyEscape {
			d.Hide()
		}
		return true
	}

	switch ev.Key() {
	case tcell.KeyEscape:
		d.Hide()
		return true
	case tcell.KeyTab, tcell.KeyDown:
		d.focus = (d.focus + 1) % focusCount
		return true
	case tcell.KeyBacktab, tcell.KeyUp:
		d.focus = (d.focus + focusCount - 1) % focusCount
		return true
	case tcell.KeyCtrlS:
		d.submit()
		return true
	case tcell.KeyEnter:
		switch d.focus {
		case focusSave:
			d.submit()
		case focusCancel:
			d.Hide()
		default:
			d.focus++
		}
		return true
	}

	if d.focus < len(d.fields) {
		d.fields[d.focus].input.HandleKey(ev)
	}
	return true // Consume all other keys when visible
}

func (d *EditDialog) Draw(s tcell.Screen) {
	if !d.visible {
		return
	}

	w, screenHeight := s.Size()
	dialogWidth := 70
	if dialogWidth > w-2 {
		dialogWidth = w - 2
	}
	dialogHeight := len(d.fields)*2 + 6
	if dialogHeight > screenHeight {
		dialogHeight = screenHeight
	}
	startX := (w - dialogWidth) / 2
	startY := (screenHeight - dialogHeight) / 2

	dialogStyle := tcell.StyleDefault.Background(ColorBgDark).Foreground(ColorFg)
	drawBox(s, startX, startY, dialogWidth, dialogHeight, dialogStyle)

	title := runewidth.Truncate("Edit: "+d.title, dialogWidth-4, "…")
	drawText(s, startX+2, startY+1, dialogStyle.Foreground(ColorHeader).Bold(true), title)

	labelWidth := 12
	inputX := startX + 2 + labelWidth
	inputWidth := dialogWidth - labelWidth - 4
	for i, f := range d.fields {
		y := startY + 3 + i*2
		if y >= startY+dialogHeight-2 {
			break
		}
		labelStyle := dialogStyle.Foreground(ColorDimmed)
		if i == d.focus {
			labelStyle = dialogStyle.Foreground(ColorHighlight).Bold(true)
		}
		drawText(s, startX+2, y, labelStyle, f.label)
		f.input.Draw(s, inputX, y, inputWidth, dialogStyle.Background(ColorBgHighlight), i == d.focus && !d.saving)
	}

	buttonsY := startY + dialogHeight - 2
	if d.saving {
		drawText(s, startX+2, buttonsY, dialogStyle.Foreground(ColorBusy), "Saving…")
		return
	}
	saveStyle := dialogStyle.Bold(true)
	cancelStyle := dialogStyle
	if d.focus == focusSave {
		saveStyle = saveStyle.Reverse(true)
	}
	if d.focus == focusCancel {
		cancelStyle = cancelStyle.Reverse(true)
	}
	drawText(s, startX+dialogWidth/2-9, buttonsY, saveStyle, "[ Save ]")
	drawText(s, startX+dialogWidth/2+1, buttonsY, cancelStyle, "[ Cancel ]")
}
