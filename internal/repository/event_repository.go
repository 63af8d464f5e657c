package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/concert-ticket-reservation/internal/model"
	"github.com/iliyamo/concert-ticket-reservation/internal/sqlutil"
)

// EventRepo provides access to the events table.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns an EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *EventRepo) DB() *sql.DB { return r.db }

// EventTicketType is one ticket tier as embedded in event detail responses.
type EventTicketType struct {
	ID            uint64          `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	TotalQuantity uint32          `json:"total_quantity"`
	SoldQuantity  uint32          `json:"sold_quantity"`
	Remaining     uint32          `json:"remaining"`
}

// EventDetail is an event with its organizer company and ticket tiers.
type EventDetail struct {
	ID          uint64            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Venue       string            `json:"venue"`
	EventDate   time.Time         `json:"event_date"`
	PosterURL   string            `json:"poster_url,omitempty"`
	IsPublished bool              `json:"is_published"`
	Company     string            `json:"company_name"`
	TicketTypes []EventTicketType `json:"ticket_types"`
}

// ListPublished returns all published events, soonest first, without
// ticket tiers.
func (r *EventRepo) ListPublished(ctx context.Context) ([]EventDetail, error) {
	const q = `SELECT e.id, e.title, e.description, e.venue, e.event_date, e.poster_url, e.is_published, o.company_name
	           FROM events e JOIN organizers o ON o.id = e.organizer_id
	           WHERE e.is_published = 1
	           ORDER BY e.event_date ASC`
	return r.list(ctx, q)
}

// ListByOrganizer returns every event of one organizer, published or not.
func (r *EventRepo) ListByOrganizer(ctx context.Context, organizerID uint64) ([]EventDetail, error) {
	const q = `SELECT e.id, e.title, e.description, e.venue, e.event_date, e.poster_url, e.is_published, o.company_name
	           FROM events e JOIN organizers o ON o.id = e.organizer_id
	           WHERE e.organizer_id = ?
	           ORDER BY e.event_date ASC`
	return r.list(ctx, q, organizerID)
}

func (r *EventRepo) list(ctx context.Context, query string, args ...interface{}) ([]EventDetail, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]EventDetail, 0)
	for rows.Next() {
		var d EventDetail
		var poster sql.NullString
		if err := rows.Scan(&d.ID, &d.Title, &d.Description, &d.Venue, &d.EventDate, &poster, &d.IsPublished, &d.Company); err != nil {
			return nil, err
		}
		d.PosterURL = poster.String
		d.TicketTypes = []EventTicketType{}
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetByID loads one event with its ticket tiers.  The second return value
// is the owning organizer's ID for ownership checks; unpublished events are
// filtered at the handler level so organizers can still see their drafts.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (EventDetail, uint64, error) {
	const q = `SELECT e.id, e.title, e.description, e.venue, e.event_date, e.poster_url, e.is_published, e.organizer_id, o.company_name
	           FROM events e JOIN organizers o ON o.id = e.organizer_id
	           WHERE e.id = ?`
	var d EventDetail
	var poster sql.NullString
	var organizerID uint64
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&d.ID, &d.Title, &d.Description, &d.Venue, &d.EventDate, &poster, &d.IsPublished, &organizerID, &d.Company,
	)
	if err != nil {
		return d, 0, err
	}
	d.PosterURL = poster.String

	const tq = `SELECT id, name, price, total_quantity, sold_quantity
	            FROM ticket_types WHERE event_id = ? ORDER BY price ASC`
	rows, err := r.db.QueryContext(ctx, tq, id)
	if err != nil {
		return d, 0, err
	}
	defer rows.Close()
	d.TicketTypes = []EventTicketType{}
	for rows.Next() {
		var t EventTicketType
		if err := rows.Scan(&t.ID, &t.Name, &t.Price, &t.TotalQuantity, &t.SoldQuantity); err != nil {
			return d, 0, err
		}
		t.Remaining = t.TotalQuantity - t.SoldQuantity
		d.TicketTypes = append(d.TicketTypes, t)
	}
	return d, organizerID, rows.Err()
}

// OrganizerID returns the owning organizer of an event.
func (r *EventRepo) OrganizerID(ctx context.Context, eventID uint64) (uint64, error) {
	var id uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT organizer_id FROM events WHERE id = ?`, eventID).Scan(&id)
	return id, err
}

// TicketTypeInput is one tier created inline with a new event.
type TicketTypeInput struct {
	Name          string
	Price         decimal.Decimal
	TotalQuantity uint32
}

// Create inserts an event and its initial ticket tiers in one transaction
// and returns the new event ID.
func (r *EventRepo) Create(ctx context.Context, e *model.Event, tiers []TicketTypeInput) (uint64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO events (organizer_id, title, description, venue, event_date, poster_url, is_published)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.OrganizerID, e.Title, e.Description, e.Venue, e.EventDate, nullIfEmpty(e.PosterURL), e.IsPublished)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	for _, t := range tiers {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO ticket_types (event_id, name, price, total_quantity) VALUES (?, ?, ?, ?)`,
			id, t.Name, t.Price, t.TotalQuantity); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return uint64(id), nil
}

// Update applies a partial update built by the handler.
func (r *EventRepo) Update(ctx context.Context, id uint64, b *sqlutil.UpdateBuilder) error {
	query, args, ok := b.Build("id = ?", id)
	if !ok {
		return nil
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// Delete removes an event and its ticket tiers.  Fails with ErrConflict
// when any tier has been ordered, since order history must stay intact.
func (r *EventRepo) Delete(ctx context.Context, id uint64) error {
	var refs int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM order_items oi JOIN ticket_types t ON t.id = oi.ticket_type_id WHERE t.event_id = ?`,
		id).Scan(&refs); err != nil {
		return err
	}
	if refs > 0 {
		return ErrConflict
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `DELETE FROM ticket_types WHERE event_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
