package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"clubevents/internal/domain"

	"github.com/lib/pq"
)

const eventColumns = `id, title, description, location, date, max_attendees, current_attendees,
		organizer_id, organizer_name, status, tags, image_url, created_at, updated_at`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var status string
	var tags []string
	var imageURL sql.NullString
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.Location, &e.Date, &e.MaxAttendees, &e.CurrentAttendees,
		&e.OrganizerID, &e.OrganizerName, &status, pq.Array(&tags), &imageURL, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Status = domain.EventStatus(status)
	e.Tags = tags
	if e.Tags == nil {
		e.Tags = []string{}
	}
	e.ImageURL = imageURL.String
	return e, nil
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (title, description, location, date, max_attendees, current_attendees,
			organizer_id, organizer_name, status, tags, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		e.Title, e.Description, e.Location, e.Date, e.MaxAttendees, e.CurrentAttendees,
		e.OrganizerID, e.OrganizerName, string(e.Status), pq.Array(e.Tags), nullString(e.ImageURL),
		e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	return mapError(err, nil)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err, domain.ErrEventNotFound)
	}
	return e, nil
}

func (r *eventRepository) List(ctx context.Context, filter domain.EventFilter, params domain.PaginationParams) ([]*domain.Event, int, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.OrganizerID != "" {
		args = append(args, filter.OrganizerID)
		conds = append(conds, fmt.Sprintf("organizer_id = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	args = append(args, params.Limit(), params.Offset())
	query := fmt.Sprintf(`SELECT %s FROM events%s ORDER BY date ASC, id ASC LIMIT $%d OFFSET $%d`,
		eventColumns, where, len(args)-1, len(args))
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// Update writes the editable columns. current_attendees belongs to the registration
// workflow; its stored value is read back into e.
func (r *eventRepository) Update(ctx context.Context, e *domain.Event) error {
	query := `
		UPDATE events
		SET title = $2, description = $3, location = $4, date = $5, max_attendees = $6,
			status = $7, tags = $8, image_url = $9, organizer_name = $10, updated_at = $11
		WHERE id = $1
		RETURNING current_attendees
	`
	err := r.DB.QueryRowContext(ctx, query,
		e.ID, e.Title, e.Description, e.Location, e.Date, e.MaxAttendees,
		string(e.Status), pq.Array(e.Tags), nullString(e.ImageURL), e.OrganizerName, e.UpdatedAt,
	).Scan(&e.CurrentAttendees)
	return mapError(err, domain.ErrEventNotFound)
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}
