package achievements

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mkovacic/portfolio/internal/telemetry/tracing"
)

var _ achievementsRepo = (*Repo)(nil)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, achievement *Achievement) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "achievementsRepo.Add")
	defer span.End()

	if achievement.CreatedAt.IsZero() {
		achievement.CreatedAt = time.Now()
	}

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO achievements (title, description, icon, date, category, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id;`,
		achievement.Title, achievement.Description, achievement.Icon,
		achievement.Date, achievement.Category, achievement.CreatedAt,
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
			achievement.ID = id
			return nil
		}
	}

	return errors.New("unexpected error, failed to insert achievement")
}

func (r *Repo) Update(ctx context.Context, achievement *Achievement) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "achievementsRepo.Update")
	span.SetAttributes(attribute.Int("id", achievement.ID))
	defer span.End()

	tag, err := r.db.Exec(
		ctx,
		`UPDATE achievements SET
			title = $1, description = $2, icon = $3, date = $4, category = $5
		 WHERE id = $6`,
		achievement.Title, achievement.Description, achievement.Icon,
		achievement.Date, achievement.Category, achievement.ID,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrAchievementNotFound
	}

	return nil
}

func (r *Repo) Delete(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM achievements WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAchievementNotFound
	}
	return nil
}

func (r *Repo) All(ctx context.Context) ([]*Achievement, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "achievementsRepo.All")
	defer span.End()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, title, description, icon, date, category, created_at
		 FROM achievements
		 ORDER BY date DESC NULLS LAST;`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return r.rows2achievements(rows)
}

func (r *Repo) Get(ctx context.Context, id int) (*Achievement, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "achievementsRepo.Get")
	span.SetAttributes(attribute.Int("id", id))
	defer span.End()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, title, description, icon, date, category, created_at
		 FROM achievements
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
		return nil, ErrAchievementNotFound
	}

	return scanAchievement(rows)
}

func (r *Repo) rows2achievements(rows pgx.Rows) ([]*Achievement, error) {
	var achievements []*Achievement
	for rows.Next() {
		achievement, err := scanAchievement(rows)
		if err != nil {
			return nil, err
		}
		achievements = append(achievements, achievement)
	}
	return achievements, nil
}

func scanAchievement(rows pgx.Rows) (*Achievement, error) {
	var a Achievement
	if err := rows.Scan(
		&a.ID, &a.Title, &a.Description, &a.Icon, &a.Date, &a.Category, &a.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}
