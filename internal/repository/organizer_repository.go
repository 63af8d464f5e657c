package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/concert-ticket-reservation/internal/model"
)

// OrganizerRepo persists organizer profiles, the one-to-one extension of a
// user with role ORGANIZER.
type OrganizerRepo struct{ DB *sql.DB }

func NewOrganizerRepo(db *sql.DB) *OrganizerRepo { return &OrganizerRepo{DB: db} }

// Create inserts the organizer profile for a user.
func (r *OrganizerRepo) Create(ctx context.Context, userID uint64, companyName string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO organizers (user_id, company_name) VALUES (?,?)",
		userID, companyName)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByUserID fetches the organizer profile of a user, sql.ErrNoRows when
// the user is not an organizer.
func (r *OrganizerRepo) GetByUserID(ctx context.Context, userID uint64) (model.Organizer, error) {
	var o model.Organizer
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, company_name, created_at FROM organizers WHERE user_id=? LIMIT 1",
		userID).Scan(&o.ID, &o.UserID, &o.CompanyName, &o.CreatedAt)
	return o, err
}
