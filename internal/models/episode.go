package models

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator"
	"github.com/google/uuid"
)

// Episode is one entry of the site's episode catalogue. The JSON names are
// the ones the backend stores and serves.
type Episode struct {
	// ID is assigned locally when the collection is loaded and never sent
	// to the backend, which still addresses episodes by position.
	ID          string `json:"-"`
	Title       string `json:"titulo"`
	Description string `json:"descripcion"`
	Date        string `json:"fecha"`
	Duration    string `json:"duracion"`
	ImagePath   string `json:"imagen"`
	AudioLink   string `json:"enlace,omitempty"`
}

// EpisodeFields is the editable field set submitted by the edit form.
type EpisodeFields struct {
	Title       string `json:"titulo" validate:"required"`
	Date        string `json:"fecha" validate:"required"`
	Duration    string `json:"duracion" validate:"required"`
	Description string `json:"descripcion" validate:"required"`
	ImagePath   string `json:"imagen" validate:"required"`
	AudioLink   string `json:"enlace" validate:"required,url"`
}

// NewEpisodeID returns a fresh opaque identifier.
func NewEpisodeID() string {
	return uuid.NewString()
}

// Fields returns the editable fields of the episode.
func (e *Episode) Fields() EpisodeFields {
	return EpisodeFields{
		Title:       e.Title,
		Date:        e.Date,
		Duration:    e.Duration,
		Description: e.Description,
		ImagePath:   e.ImagePath,
		AudioLink:   e.AudioLink,
	}
}

// Apply merges the submitted fields into the episode. The ID is kept.
func (e *Episode) Apply(f EpisodeFields) {
	e.Title = f.Title
	e.Date = f.Date
	e.Duration = f.Duration
	e.Description = f.Description
	e.ImagePath = f.ImagePath
	e.AudioLink = f.AudioLink
}

// ValidationError lists the form fields that failed client-side checks.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing or invalid fields: " + strings.Join(e.Fields, ", ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report the wire names so messages match the form labels.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks a struct's validate tags and converts failures to a
// *ValidationError.
func Validate(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return &ValidationError{Fields: fields}
}
