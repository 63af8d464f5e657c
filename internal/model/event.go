package model

import "time"

// Event is a concert listed by an organizer.  Only published events are
// visible to the public catalog endpoints.
type Event struct {
	ID          uint64    // events.id
	OrganizerID uint64    // events.organizer_id
	Title       string    // events.title
	Description string    // events.description
	Venue       string    // events.venue
	EventDate   time.Time // events.event_date
	PosterURL   string    // events.poster_url
	IsPublished bool      // events.is_published
	CreatedAt   time.Time // events.created_at
}
