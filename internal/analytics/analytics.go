package analytics

import "time"

const (
	EventTypePageView = "page_view"

	maxEventTypeLength = 100
	maxPageURLLength   = 500
	maxVisitorIDLength = 255
)

type PageView struct {
	ID        int       `json:"id"`
	PageURL   string    `json:"page_url"`
	VisitorID string    `json:"visitor_id,omitempty"`
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Event struct {
	ID        int            `json:"id"`
	EventType string         `json:"event_type"`
	EventData map[string]any `json:"event_data"`
	IPAddress string         `json:"ip_address,omitempty"`
	UserAgent string         `json:"user_agent,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

type TopEvent struct {
	EventType string `json:"eventType"`
	Count     int    `json:"count"`
}

type Stats struct {
	TotalViews     int        `json:"total_views"`
	UniqueVisitors int        `json:"unique_visitors"`
	ProjectViews   int        `json:"project_views"`
	RecentContacts int        `json:"recent_contacts"`
	TopEvents      []TopEvent `json:"top_events"`
}

type ViewsPerDay struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}
