package contact

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mkovacic/portfolio/internal/telemetry/tracing"
)

var _ contactRepo = (*Repo)(nil)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, message *Message) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "contactRepo.Add")
	defer span.End()

	if message.Status == "" {
		message.Status = StatusNew
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO contacts (name, email, message, status, ip_address, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id;`,
		message.Name, message.Email, message.Message,
		message.Status, message.IPAddress, message.CreatedAt,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return err
	}

	if rows.Next() {
		var id int
		if err := rows.Scan(&id); err == nil {
			message.ID = id
			return nil
		}
	}

	return errors.New("unexpected error, failed to insert contact message")
}

func (r *Repo) All(ctx context.Context) ([]*Message, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "contactRepo.All")
	defer span.End()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, name, email, message, status, ip_address, created_at
		 FROM contacts
		 ORDER BY created_at DESC;`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return r.rows2messages(rows)
}

func (r *Repo) AllByStatus(ctx context.Context, status string) ([]*Message, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "contactRepo.AllByStatus")
	span.SetAttributes(attribute.String("status", status))
	defer span.End()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, name, email, message, status, ip_address, created_at
		 FROM contacts
		 WHERE status = $1
		 ORDER BY created_at DESC;`,
		status,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return r.rows2messages(rows)
}

func (r *Repo) Get(ctx context.Context, id int) (*Message, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "contactRepo.Get")
	span.SetAttributes(attribute.Int("id", id))
	defer span.End()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, name, email, message, status, ip_address, created_at
		 FROM contacts
		 WHERE id = $1;`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, ErrMessageNotFound
	}

	return scanMessage(rows)
}

func (r *Repo) UpdateStatus(ctx context.Context, id int, status string) (*Message, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "contactRepo.UpdateStatus")
	span.SetAttributes(attribute.Int("id", id))
	span.SetAttributes(attribute.String("status", status))
	defer span.End()

	rows, err := r.db.Query(
		ctx,
		`UPDATE contacts SET status = $1 WHERE id = $2
		 RETURNING id, name, email, message, status, ip_address, created_at;`,
		status, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, ErrMessageNotFound
	}

	return scanMessage(rows)
}

func (r *Repo) Delete(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// CountSince is used by the analytics stats endpoint.
func (r *Repo) CountSince(ctx context.Context, since time.Time) (int, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "contactRepo.CountSince")
	defer span.End()

	rows, err := r.db.Query(ctx, `SELECT COUNT(*) FROM contacts WHERE created_at >= $1`, since)
	if err != nil {
		return -1, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return -1, err
	}

	if rows.Next() {
		var count int
		if err := rows.Scan(&count); err == nil {
			return count, nil
		}
	}

	return -1, errors.New("unexpected error, failed to count contacts")
}

func (r *Repo) rows2messages(rows pgx.Rows) ([]*Message, error) {
	var messages []*Message
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

func scanMessage(rows pgx.Rows) (*Message, error) {
	var m Message
	if err := rows.Scan(
		&m.ID, &m.Name, &m.Email, &m.Message, &m.Status, &m.IPAddress, &m.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}
