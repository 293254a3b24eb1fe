package postgres

import (
	"context"
	"database/sql"
	"time"

	"clubevents/internal/domain"
)

const profileColumns = `id, email, display_name, photo_url, role, email_notifications, event_reminders,
		created_at, last_login`

type profileRepository struct {
	DB *sql.DB
}

func NewProfileRepository(db *sql.DB) domain.ProfileRepository {
	return &profileRepository{DB: db}
}

func scanProfile(row rowScanner) (*domain.UserProfile, error) {
	p := &domain.UserProfile{}
	var role string
	var photoURL sql.NullString
	err := row.Scan(
		&p.ID, &p.Email, &p.DisplayName, &photoURL, &role,
		&p.Preferences.EmailNotifications, &p.Preferences.EventReminders,
		&p.CreatedAt, &p.LastLogin,
	)
	if err != nil {
		return nil, err
	}
	p.Role = domain.Role(role)
	p.PhotoURL = photoURL.String
	return p, nil
}

func (r *profileRepository) Create(ctx context.Context, p *domain.UserProfile) error {
	query := `
		INSERT INTO users (id, email, display_name, photo_url, role, email_notifications, event_reminders, created_at, last_login)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.DB.ExecContext(ctx, query,
		p.ID, p.Email, p.DisplayName, nullString(p.PhotoURL), string(p.Role),
		p.Preferences.EmailNotifications, p.Preferences.EventReminders, p.CreatedAt, p.LastLogin,
	)
	return mapError(err, nil)
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (*domain.UserProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM users WHERE id = $1`
	p, err := scanProfile(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err, domain.ErrProfileNotFound)
	}
	return p, nil
}

func (r *profileRepository) Update(ctx context.Context, p *domain.UserProfile) error {
	query := `
		UPDATE users
		SET email = $2, display_name = $3, photo_url = $4, role = $5,
			email_notifications = $6, event_reminders = $7
		WHERE id = $1
	`
	res, err := r.DB.ExecContext(ctx, query,
		p.ID, p.Email, p.DisplayName, nullString(p.PhotoURL), string(p.Role),
		p.Preferences.EmailNotifications, p.Preferences.EventReminders,
	)
	if err != nil {
		return mapError(err, nil)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

// RecordSignIn sets last_login and replaces the identity-provided display fields that are
// non-empty.
func (r *profileRepository) RecordSignIn(ctx context.Context, id, email, displayName, photoURL string, at time.Time) (*domain.UserProfile, error) {
	query := `
		UPDATE users
		SET last_login = $2,
			email = COALESCE(NULLIF($3, ''), email),
			display_name = COALESCE(NULLIF($4, ''), display_name),
			photo_url = COALESCE(NULLIF($5, ''), photo_url)
		WHERE id = $1
		RETURNING ` + profileColumns
	p, err := scanProfile(r.DB.QueryRowContext(ctx, query, id, at, email, displayName, photoURL))
	if err != nil {
		return nil, mapError(err, domain.ErrProfileNotFound)
	}
	return p, nil
}
