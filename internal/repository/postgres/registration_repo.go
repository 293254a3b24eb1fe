package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"clubevents/internal/domain"
)

const registrationColumns = `id, event_id, user_id, user_name, user_email, registration_time,
		status, reason, notes, attendance`

type registrationRepository struct {
	DB *sql.DB
}

func NewRegistrationRepository(db *sql.DB) domain.RegistrationRepository {
	return &registrationRepository{
		DB: db,
	}
}

func scanRegistration(row rowScanner) (*domain.Registration, error) {
	reg := &domain.Registration{}
	var status string
	var reason, notes sql.NullString
	var attendance sql.NullBool
	err := row.Scan(
		&reg.ID, &reg.EventID, &reg.UserID, &reg.UserName, &reg.UserEmail, &reg.RegistrationTime,
		&status, &reason, &notes, &attendance,
	)
	if err != nil {
		return nil, err
	}
	reg.Status = domain.RegistrationStatus(status)
	reg.Reason = reason.String
	reg.Notes = notes.String
	if attendance.Valid {
		v := attendance.Bool
		reg.Attendance = &v
	}
	return reg, nil
}

// WithinTx runs fn inside a database transaction, rolling back when fn fails.
func (r *registrationRepository) WithinTx(ctx context.Context, fn func(tx domain.RegistrationTx) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(&registrationTx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", mapError(err, nil))
	}
	return nil
}

func (r *registrationRepository) GetByID(ctx context.Context, id string) (*domain.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1`
	reg, err := scanRegistration(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err, domain.ErrRegistrationNotFound)
	}
	return reg, nil
}

func (r *registrationRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Registration, error) {
	query := `SELECT ` + registrationColumns + `
		FROM registrations
		WHERE event_id = $1
		ORDER BY registration_time ASC, id ASC`
	return r.list(ctx, query, eventID)
}

func (r *registrationRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Registration, error) {
	query := `SELECT ` + registrationColumns + `
		FROM registrations
		WHERE user_id = $1
		ORDER BY registration_time DESC, id DESC`
	return r.list(ctx, query, userID)
}

func (r *registrationRepository) list(ctx context.Context, query string, arg string) ([]*domain.Registration, error) {
	rows, err := r.DB.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	regs := make([]*domain.Registration, 0)
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return regs, nil
}

// registrationTx implements domain.RegistrationTx on an open transaction. Row locks taken
// with FOR UPDATE are held until commit or rollback.
type registrationTx struct {
	tx *sql.Tx
}

func (t *registrationTx) LockEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 FOR UPDATE`
	e, err := scanEvent(t.tx.QueryRowContext(ctx, query, eventID))
	if err != nil {
		return nil, mapError(err, domain.ErrEventNotFound)
	}
	return e, nil
}

func (t *registrationTx) LockRegistration(ctx context.Context, registrationID string) (*domain.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1 FOR UPDATE`
	reg, err := scanRegistration(t.tx.QueryRowContext(ctx, query, registrationID))
	if err != nil {
		return nil, mapError(err, domain.ErrRegistrationNotFound)
	}
	return reg, nil
}

func (t *registrationTx) FindActiveRegistration(ctx context.Context, eventID, userID string) (*domain.Registration, error) {
	query := `SELECT ` + registrationColumns + `
		FROM registrations
		WHERE event_id = $1 AND user_id = $2 AND status <> 'cancelled'
		LIMIT 1`
	reg, err := scanRegistration(t.tx.QueryRowContext(ctx, query, eventID, userID))
	if err != nil {
		return nil, mapError(err, domain.ErrRegistrationNotFound)
	}
	return reg, nil
}

// CreateRegistration inserts reg; the store assigns id and registration_time.
func (t *registrationTx) CreateRegistration(ctx context.Context, reg *domain.Registration) error {
	query := `
		INSERT INTO registrations (event_id, user_id, user_name, user_email, status, reason, notes, attendance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, registration_time
	`
	err := t.tx.QueryRowContext(ctx, query,
		reg.EventID, reg.UserID, reg.UserName, reg.UserEmail, string(reg.Status),
		nullString(reg.Reason), nullString(reg.Notes), nullBool(reg.Attendance),
	).Scan(&reg.ID, &reg.RegistrationTime)
	return mapError(err, nil)
}

func (t *registrationTx) UpdateRegistration(ctx context.Context, reg *domain.Registration) error {
	query := `
		UPDATE registrations
		SET status = $2, notes = $3, attendance = $4
		WHERE id = $1
	`
	res, err := t.tx.ExecContext(ctx, query, reg.ID, string(reg.Status), nullString(reg.Notes), nullBool(reg.Attendance))
	if err != nil {
		return mapError(err, nil)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrRegistrationNotFound
	}
	return nil
}

func (t *registrationTx) AdjustAttendees(ctx context.Context, eventID string, delta int, at time.Time) (int, error) {
	query := `
		UPDATE events
		SET current_attendees = GREATEST(current_attendees + $2, 0), updated_at = $3
		WHERE id = $1
		RETURNING current_attendees
	`
	var count int
	err := t.tx.QueryRowContext(ctx, query, eventID, delta, at).Scan(&count)
	if err != nil {
		return 0, mapError(err, domain.ErrEventNotFound)
	}
	return count, nil
}
