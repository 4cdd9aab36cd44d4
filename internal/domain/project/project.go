package project

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

type Project struct {
	ID             uuid.UUID  `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	LogoURL        string     `json:"logo_url"`
	IsActive       bool       `json:"is_active"`
	IsSuspended    bool       `json:"is_suspended"`
	InterestCount  int64      `json:"interest_count"`
	InterestEmails []string   `json:"interest_emails"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

// New builds a fresh record from an already validated payload.
func New(p Payload, now time.Time) Project {
	return Project{
		ID:             uuid.New(),
		Title:          p.Title,
		Description:    p.Description,
		LogoURL:        p.LogoURL,
		IsActive:       *p.IsActive,
		InterestEmails: []string{},
		CreatedAt:      now,
	}
}

// Status collapses the activation and suspension flags. Suspension wins.
func (p Project) Status() Status {
	switch {
	case p.IsSuspended:
		return StatusSuspended
	case p.IsActive:
		return StatusActive
	default:
		return StatusPending
	}
}

// Clone returns a copy that shares no slice memory with p.
func (p Project) Clone() Project {
	out := p
	out.InterestEmails = slices.Clone(p.InterestEmails)
	if out.InterestEmails == nil {
		out.InterestEmails = []string{}
	}
	if p.UpdatedAt != nil {
		t := *p.UpdatedAt
		out.UpdatedAt = &t
	}
	return out
}

// Apply overwrites the mutable fields. Suspended projects are locked.
func (p *Project) Apply(in Payload) error {
	if p.IsSuspended {
		return fmt.Errorf("%w: %s", ErrSuspended, p.ID)
	}
	p.Title = in.Title
	p.Description = in.Description
	p.LogoURL = in.LogoURL
	p.IsActive = *in.IsActive
	return nil
}

// Suspend is one-way; a repeat attempt is reported, not absorbed.
func (p *Project) Suspend() error {
	if p.IsSuspended {
		return fmt.Errorf("%w: %s", ErrAlreadySuspended, p.ID)
	}
	p.IsSuspended = true
	return nil
}

// Activate is the only transition the countdown timer may apply.
func (p *Project) Activate() error {
	if p.IsSuspended {
		return fmt.Errorf("%w: %s", ErrSuspended, p.ID)
	}
	p.IsActive = true
	return nil
}

// RegisterInterest appends email and bumps the counter together so that
// len(InterestEmails) == InterestCount always holds.
func (p *Project) RegisterInterest(email string) error {
	if p.IsSuspended {
		return fmt.Errorf("%w: %s", ErrSuspended, p.ID)
	}
	if !p.IsActive {
		return fmt.Errorf("%w: %s", ErrInactive, p.ID)
	}
	p.InterestEmails = append(p.InterestEmails, email)
	p.InterestCount++
	return nil
}
