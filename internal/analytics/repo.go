package analytics

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mkovacic/portfolio/internal/telemetry/tracing"
)

const (
	recentContactsWindow = 7 * 24 * time.Hour
	topEventsWindow      = 30 * 24 * time.Hour
	topEventsLimit       = 5
)

var _ analyticsRepo = (*Repo)(nil)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) AddPageView(ctx context.Context, pageView *PageView) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyticsRepo.AddPageView")
	defer span.End()

	if pageView.CreatedAt.IsZero() {
		pageView.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(
		ctx,
		`INSERT INTO page_views (page_url, visitor_id, session_id, created_at)
		 VALUES ($1, $2, $3, $4)`,
		pageView.PageURL, pageView.VisitorID, pageView.SessionID, pageView.CreatedAt,
	)
	return err
}

func (r *Repo) AddEvent(ctx context.Context, event *Event) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyticsRepo.AddEvent")
	span.SetAttributes(attribute.String("event.type", event.EventType))
	defer span.End()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	if event.EventData == nil {
		event.EventData = map[string]any{}
	}

	_, err := r.db.Exec(
		ctx,
		`INSERT INTO analytics (event_type, event_data, ip_address, user_agent, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		event.EventType, event.EventData, event.IPAddress, event.UserAgent, event.CreatedAt,
	)
	return err
}

// Stats gathers the dashboard aggregates. The project views and recent
// contacts numbers come from the projects and contacts tables.
func (r *Repo) Stats(ctx context.Context) (*Stats, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyticsRepo.Stats")
	defer span.End()

	stats := &Stats{
		TopEvents: []TopEvent{},
	}

	if err := r.db.QueryRow(
		ctx, `SELECT COUNT(*) FROM page_views`,
	).Scan(&stats.TotalViews); err != nil {
		return nil, err
	}

	if err := r.db.QueryRow(
		ctx, `SELECT COUNT(DISTINCT visitor_id) FROM page_views WHERE visitor_id <> ''`,
	).Scan(&stats.UniqueVisitors); err != nil {
		return nil, err
	}

	if err := r.db.QueryRow(
		ctx, `SELECT COALESCE(SUM(view_count), 0) FROM projects`,
	).Scan(&stats.ProjectViews); err != nil {
		return nil, err
	}

	if err := r.db.QueryRow(
		ctx,
		`SELECT COUNT(*) FROM contacts WHERE created_at >= $1`,
		time.Now().Add(-recentContactsWindow),
	).Scan(&stats.RecentContacts); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(
		ctx,
		`SELECT event_type, COUNT(*) AS count
		 FROM analytics
		 WHERE created_at >= $1
		 GROUP BY event_type
		 ORDER BY count DESC
		 LIMIT $2;`,
		time.Now().Add(-topEventsWindow), topEventsLimit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	for rows.Next() {
		var topEvent TopEvent
		if err := rows.Scan(&topEvent.EventType, &topEvent.Count); err != nil {
			return nil, err
		}
		stats.TopEvents = append(stats.TopEvents, topEvent)
	}

	return stats, nil
}

func (r *Repo) ViewsOverTime(ctx context.Context, days int) ([]ViewsPerDay, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyticsRepo.ViewsOverTime")
	span.SetAttributes(attribute.Int("days", days))
	defer span.End()

	rows, err := r.db.Query(
		ctx,
		`SELECT DATE(created_at)::text AS date, COUNT(*) AS count
		 FROM page_views
		 WHERE created_at >= $1
		 GROUP BY DATE(created_at)
		 ORDER BY DATE(created_at);`,
		time.Now().AddDate(0, 0, -days),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	views := []ViewsPerDay{}
	for rows.Next() {
		var perDay ViewsPerDay
		if err := rows.Scan(&perDay.Date, &perDay.Count); err != nil {
			return nil, err
		}
		views = append(views, perDay)
	}
	return views, nil
}
