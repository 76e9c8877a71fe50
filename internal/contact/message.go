package contact

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

var ErrMessageNotFound = errors.New("contact message not found")

const (
	StatusNew      = "new"
	StatusRead     = "read"
	StatusReplied  = "replied"
	StatusArchived = "archived"
)

var validStatuses = map[string]bool{
	StatusNew:      true,
	StatusRead:     true,
	StatusReplied:  true,
	StatusArchived: true,
}

func ValidStatus(status string) bool {
	return validStatuses[status]
}

type Message struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	IPAddress string    `json:"ipAddress,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (m *Message) validate() string {
	m.Name = strings.TrimSpace(m.Name)
	m.Email = strings.TrimSpace(m.Email)
	m.Message = strings.TrimSpace(m.Message)

	if m.Name == "" {
		return "Name is required"
	}
	if len(m.Name) > 255 {
		return "Name must be under 255 characters"
	}
	if m.Email == "" {
		return "Email is required"
	}
	if len(m.Email) > 255 {
		return "Email must be under 255 characters"
	}
	if _, err := mail.ParseAddress(m.Email); err != nil {
		return "Invalid email address"
	}
	if m.Message == "" {
		return "Message is required"
	}
	if len(m.Message) > 5000 {
		return "Message must be under 5000 characters"
	}
	return ""
}
