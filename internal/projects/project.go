package projects

import (
	"errors"
	"regexp"
	"time"
)

var ErrProjectNotFound = errors.New("project not found")

const (
	DefaultColor    = "#8B5CF6"
	DefaultCategory = "Commercial"
)

var (
	validCategories = map[string]bool{
		"Featured":   true,
		"Commercial": true,
		"Other":      true,
	}
	hexColorRegex = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
)

type Project struct {
	ID              int       `json:"id"`
	Title           string    `json:"title"`
	Company         string    `json:"company"`
	Description     string    `json:"description"`
	VideoURL        string    `json:"videoUrl,omitempty"`
	ThumbnailURL    string    `json:"thumbnailUrl,omitempty"`
	ProjectURL      string    `json:"projectUrl,omitempty"`
	Color           string    `json:"color"`
	AnimationCredit string    `json:"animationCredit,omitempty"`
	Category        string    `json:"category"`
	Technologies    []string  `json:"technologies"`
	ViewCount       int       `json:"viewCount"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// PopularProject is the trimmed down shape used by the analytics endpoints.
type PopularProject struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Company   string `json:"company"`
	ViewCount int    `json:"viewCount"`
}

// validate checks a project received from a client, filling in the
// defaults the same way the database schema would.
func (p *Project) validate() string {
	if p.Title == "" {
		return "error, title empty"
	}
	if len(p.Title) > 255 {
		return "error, title too long"
	}
	if p.Company == "" {
		return "error, company empty"
	}
	if len(p.Company) > 255 {
		return "error, company too long"
	}
	if p.Description == "" {
		return "error, description empty"
	}
	if p.Color == "" {
		p.Color = DefaultColor
	} else if !hexColorRegex.MatchString(p.Color) {
		return "error, color must be a hex color"
	}
	if p.Category == "" {
		p.Category = DefaultCategory
	} else if !validCategories[p.Category] {
		return "error, category must be Featured, Commercial or Other"
	}
	return ""
}
