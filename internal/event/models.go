package event

import (
	"strings"
	"time"

	"backend-trekhub/internal/route"
)

const (
	StatusActive    = "active"
	StatusCancelled = "cancelled"

	DifficultyAll = "All"
)

var Difficulties = []string{"Easy", "Moderate", "Hard"}

type Event struct {
	ID               string             `json:"id"`
	Title            string             `json:"title"`
	Location         string             `json:"location"`
	StartsAt         time.Time          `json:"starts_at"`
	Difficulty       string             `json:"difficulty"`
	MaxParticipants  int                `json:"max_participants"`
	ParticipantCount int                `json:"participant_count"`
	Description      string             `json:"description"`
	MeetingPoint     string             `json:"meeting_point"`
	Equipment        string             `json:"equipment"`
	ImageURL         string             `json:"image_url"`
	DistanceKm       float64            `json:"distance_km"`
	ElevationGainM   float64            `json:"elevation_gain_m"`
	Duration         string             `json:"duration"`
	RoutePoints      []route.TrackPoint `json:"route_points"`
	GPXContent       string             `json:"gpx_content,omitempty"`
	CreatedBy        string             `json:"created_by"`
	CreatedAt        time.Time          `json:"created_at"`
	Status           string             `json:"status"`
}

type CreateRequest struct {
	Title           string             `json:"title" validate:"required"`
	Location        string             `json:"location" validate:"required"`
	StartsAt        *time.Time         `json:"starts_at" validate:"required"`
	Difficulty      string             `json:"difficulty" validate:"required,oneof=Easy Moderate Hard"`
	MaxParticipants int                `json:"max_participants" validate:"min=1"`
	Description     string             `json:"description" validate:"required"`
	MeetingPoint    string             `json:"meeting_point"`
	Equipment       string             `json:"equipment"`
	ImageURL        string             `json:"image_url"`
	DistanceKm      *float64           `json:"distance_km" validate:"omitempty,min=0"`
	ElevationGainM  *float64           `json:"elevation_gain_m" validate:"omitempty,min=0"`
	Duration        string             `json:"duration"`
	RoutePoints     []route.TrackPoint `json:"route_points"`
	UseDraft        bool               `json:"use_draft"`
}

type Participant struct {
	UserID   string    `json:"user_id"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joined_at"`
}

// Filter narrows the event list. Difficulty "" or "All" keeps every
// difficulty; Query matches title or location case-insensitively.
type Filter struct {
	Difficulty string
	Query      string
}

// Match reports whether e passes both the difficulty and the text filter.
func (f Filter) Match(e Event) bool {
	if f.Difficulty != "" && f.Difficulty != DifficultyAll && e.Difficulty != f.Difficulty {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(e.Title), q) ||
		strings.Contains(strings.ToLower(e.Location), q)
}

// Apply returns the events that match f, preserving order. The result is
// never nil.
func (f Filter) Apply(events []Event) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}
