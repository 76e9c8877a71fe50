package projects

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mkovacic/portfolio/internal/telemetry/tracing"
)

var _ projectsRepo = (*Repo)(nil)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, project *Project) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "projectsRepo.Add")
	defer span.End()

	if project.CreatedAt.IsZero() {
		project.CreatedAt = time.Now()
	}
	project.UpdatedAt = project.CreatedAt

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO projects
			(title, company, description, video_url, thumbnail_url, project_url,
			 color, animation_credit, category, technologies, view_count, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id;`,
		project.Title, project.Company, project.Description,
		project.VideoURL, project.ThumbnailURL, project.ProjectURL,
		project.Color, project.AnimationCredit, project.Category,
		project.Technologies, project.ViewCount, project.CreatedAt, project.UpdatedAt,
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
			project.ID = id
			return nil
		}
	}

	return errors.New("unexpected error, failed to insert project")
}

func (r *Repo) Update(ctx context.Context, project *Project) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "projectsRepo.Update")
	span.SetAttributes(attribute.Int("id", project.ID))
	defer span.End()

	tag, err := r.db.Exec(
		ctx,
		`UPDATE projects SET
			title = $1, company = $2, description = $3, video_url = $4,
			thumbnail_url = $5, project_url = $6, color = $7, animation_credit = $8,
			category = $9, technologies = $10, updated_at = NOW()
		 WHERE id = $11`,
		project.Title, project.Company, project.Description, project.VideoURL,
		project.ThumbnailURL, project.ProjectURL, project.Color, project.AnimationCredit,
		project.Category, project.Technologies, project.ID,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrProjectNotFound
	}

	return nil
}

func (r *Repo) Delete(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProjectNotFound
	}
	return nil
}

// IncrementViews bumps the view counter for a project and returns the new count.
func (r *Repo) IncrementViews(ctx context.Context, id int) (int, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "projectsRepo.IncrementViews")
	span.SetAttributes(attribute.Int("id", id))
	defer span.End()

	rows, err := r.db.Query(
		ctx,
		`UPDATE projects SET view_count = view_count + 1 WHERE id = $1 RETURNING view_count;`,
		id,
	)
	if err != nil {
		return -1, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return -1, err
	}

	if !rows.Next() {
		return -1, ErrProjectNotFound
	}

	var viewCount int
	if err := rows.Scan(&viewCount); err != nil {
		return -1, err
	}
	return viewCount, nil
}

func (r *Repo) All(ctx context.Context) ([]*Project, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "projectsRepo.All")
	defer span.End()

	rows, err := r.db.Query(
		ctx,
		`SELECT
			id, title, company, description, video_url, thumbnail_url, project_url,
			color, animation_credit, category, technologies, view_count, created_at, updated_at
		 FROM projects
		 ORDER BY
			CASE category WHEN 'Featured' THEN 0 WHEN 'Commercial' THEN 1 ELSE 2 END,
			created_at DESC;`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return r.rows2projects(rows)
}

func (r *Repo) AllByCategory(ctx context.Context, category string) ([]*Project, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "projectsRepo.AllByCategory")
	span.SetAttributes(attribute.String("category", category))
	defer span.End()

	rows, err := r.db.Query(
		ctx,
		`SELECT
			id, title, company, description, video_url, thumbnail_url, project_url,
			color, animation_credit, category, technologies, view_count, created_at, updated_at
		 FROM projects
		 WHERE category = $1
		 ORDER BY created_at DESC;`,
		category,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return r.rows2projects(rows)
}

func (r *Repo) Get(ctx context.Context, id int) (*Project, error) {
	log.Tracef("getting project %d", id)

	ctx, span := tracing.GlobalTracer.Start(ctx, "projectsRepo.Get")
	span.SetAttributes(attribute.Int("id", id))
	defer span.End()

	rows, err := r.db.Query(
		ctx,
		`SELECT
			id, title, company, description, video_url, thumbnail_url, project_url,
			color, animation_credit, category, technologies, view_count, created_at, updated_at
		 FROM projects
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
		return nil, ErrProjectNotFound
	}

	return scanProject(rows)
}

// MostViewed returns up to limit projects ordered by view count, used
// by the popular projects analytics endpoint.
func (r *Repo) MostViewed(ctx context.Context, limit int) ([]PopularProject, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "projectsRepo.MostViewed")
	span.SetAttributes(attribute.Int("limit", limit))
	defer span.End()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, title, company, view_count
		 FROM projects
		 WHERE view_count > 0
		 ORDER BY view_count DESC
		 LIMIT $1;`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	var popular []PopularProject
	for rows.Next() {
		var p PopularProject
		if err := rows.Scan(&p.ID, &p.Title, &p.Company, &p.ViewCount); err != nil {
			return nil, err
		}
		popular = append(popular, p)
	}
	return popular, nil
}

func (r *Repo) rows2projects(rows pgx.Rows) ([]*Project, error) {
	var projects []*Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, nil
}

func scanProject(rows pgx.Rows) (*Project, error) {
	var p Project
	if err := rows.Scan(
		&p.ID, &p.Title, &p.Company, &p.Description,
		&p.VideoURL, &p.ThumbnailURL, &p.ProjectURL,
		&p.Color, &p.AnimationCredit, &p.Category,
		&p.Technologies, &p.ViewCount, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if p.Technologies == nil {
		p.Technologies = []string{}
	}
	return &p, nil
}
