package models

// Recommendation is a guest testimonial shown on the home page.
type Recommendation struct {
	Text         string `json:"recommendation_text"`
	GuestName    string `json:"guest_name"`
	EpisodeTitle string `json:"episode_title,omitempty"`
}

// Award is a prize the show has received.
type Award struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// Video is an entry of the channel's external video feed.
type Video struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Thumbnail string `json:"thumbnail"`
	Published string `json:"published"`
}

// Source is a transcript excerpt the chat answer was grounded on.
type Source struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	Published string `json:"published,omitempty"`
}

// ChatReply is the answer of the site's chat endpoint.
type ChatReply struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources,omitempty"`
	// Error is set by the backend as either a bool or a message.
	Error interface{} `json:"error,omitempty"`
}

// Failed reports whether the backend flagged the reply as an error.
func (r *ChatReply) Failed() bool {
	switch v := r.Error.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	default:
		return true
	}
}

// Participation is a listener's request to take part in an episode.
type Participation struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone,omitempty"`
	Message string `json:"message" validate:"required"`
}
