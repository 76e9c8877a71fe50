package analytics

import (
	"context"
	"sort"
	"sync"
)

var _ analyticsRepo = (*repoMock)(nil)

type repoMock struct {
	PageViews []*PageView
	Events    []*Event

	// aggregates coming from other tables, set directly in tests
	ProjectViews   int
	RecentContacts int

	mutex sync.Mutex
}

func newRepoMock() *repoMock {
	return &repoMock{}
}

func (r *repoMock) AddPageView(_ context.Context, pageView *PageView) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.PageViews = append(r.PageViews, pageView)
	return nil
}

func (r *repoMock) AddEvent(_ context.Context, event *Event) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if event.EventData == nil {
		event.EventData = map[string]any{}
	}
	r.Events = append(r.Events, event)
	return nil
}

func (r *repoMock) Stats(_ context.Context) (*Stats, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	uniqueVisitors := make(map[string]bool)
	for _, pageView := range r.PageViews {
		if pageView.VisitorID != "" {
			uniqueVisitors[pageView.VisitorID] = true
		}
	}

	eventCounts := make(map[string]int)
	for _, event := range r.Events {
		eventCounts[event.EventType]++
	}
	topEvents := []TopEvent{}
	for eventType, count := range eventCounts {
		topEvents = append(topEvents, TopEvent{EventType: eventType, Count: count})
	}
	sort.Slice(topEvents, func(i, j int) bool {
		if topEvents[i].Count != topEvents[j].Count {
			return topEvents[i].Count > topEvents[j].Count
		}
		return topEvents[i].EventType < topEvents[j].EventType
	})
	if len(topEvents) > topEventsLimit {
		topEvents = topEvents[:topEventsLimit]
	}

	return &Stats{
		TotalViews:     len(r.PageViews),
		UniqueVisitors: len(uniqueVisitors),
		ProjectViews:   r.ProjectViews,
		RecentContacts: r.RecentContacts,
		TopEvents:      topEvents,
	}, nil
}

func (r *repoMock) ViewsOverTime(_ context.Context, days int) ([]ViewsPerDay, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	perDay := make(map[string]int)
	for _, pageView := range r.PageViews {
		perDay[pageView.CreatedAt.Format("2006-01-02")]++
	}

	views := []ViewsPerDay{}
	for date, count := range perDay {
		views = append(views, ViewsPerDay{Date: date, Count: count})
	}
	sort.Slice(views, func(i, j int) bool {
		return views[i].Date < views[j].Date
	})
	return views, nil
}
