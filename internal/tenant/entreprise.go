package tenant

import (
	"time"
)

// Entreprise represents a customer company: the unit of tenant isolation.
// Every tenant-scoped entity carries its id as a foreign key.
type Entreprise struct {
	ID                 string    `json:"id"`
	Nom                string    `json:"nom"`
	Slug               string    `json:"slug"`
	LogoURL            string    `json:"logo_url,omitempty"`
	Plan               string    `json:"plan"`
	Statut             string    `json:"statut"`
	OnboardingComplete bool      `json:"onboarding_complete"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Plan constants
const (
	PlanFree       = "free"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"
)

// Status constants
const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
)
