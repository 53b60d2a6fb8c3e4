// Package job holds the posting model shared by matching, tracking and the
// platform adapters.
package job

import (
	"fmt"
	"time"
)

// Salary is an optional advertised range. Zero From/To means the bound is
// not disclosed.
type Salary struct {
	From     int    `json:"from,omitempty"`
	To       int    `json:"to,omitempty"`
	Currency string `json:"currency,omitempty"`
}

// Posting is a job posting discovered on a platform. Identity is
// (PlatformID, ExternalID) and never changes after discovery.
type Posting struct {
	PlatformID  string    `json:"platform_id"`
	ExternalID  string    `json:"external_id"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Location    string    `json:"location,omitempty"`
	Remote      bool      `json:"remote,omitempty"`
	Salary      *Salary   `json:"salary,omitempty"`
	Description string    `json:"description,omitempty"`
	Form        string    `json:"form,omitempty"`
	PostedAt    time.Time `json:"posted_at,omitempty"`
}

// Key returns the unique identity of the posting within the whole system.
func (p *Posting) Key() string {
	return fmt.Sprintf("%s/%s", p.PlatformID, p.ExternalID)
}
