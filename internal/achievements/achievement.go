package achievements

import (
	"errors"
	"time"
)

var ErrAchievementNotFound = errors.New("achievement not found")

const DefaultIcon = "award"

type Achievement struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Icon        string     `json:"icon"`
	Date        *time.Time `json:"date,omitempty"`
	Category    string     `json:"category,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func (a *Achievement) validate() string {
	if a.Title == "" {
		return "error, title empty"
	}
	if len(a.Title) > 255 {
		return "error, title too long"
	}
	if len(a.Description) > 2000 {
		return "error, description too long"
	}
	if len(a.Category) > 100 {
		return "error, category too long"
	}
	if a.Icon == "" {
		a.Icon = DefaultIcon
	} else if len(a.Icon) > 100 {
		return "error, icon too long"
	}
	return ""
}
