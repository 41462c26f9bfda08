package entities

import (
	"time"
)

// ProviderType represents the service model of a healthcare provider
type ProviderType string

const (
	ProviderTypeClinic     ProviderType = "clinic"
	ProviderTypePharmacy   ProviderType = "pharmacy"
	ProviderTypeTelehealth ProviderType = "telehealth"
	ProviderTypeHospital   ProviderType = "hospital"
	ProviderTypePopUp      ProviderType = "pop_up"
	ProviderTypeMobile     ProviderType = "mobile"
	ProviderTypeUrgentCare ProviderType = "urgent_care"
)

// Valid reports whether the provider type is a known one
func (t ProviderType) Valid() bool {
	switch t {
	case ProviderTypeClinic, ProviderTypePharmacy, ProviderTypeTelehealth,
		ProviderTypeHospital, ProviderTypePopUp, ProviderTypeMobile,
		ProviderTypeUrgentCare:
		return true
	}
	return false
}

// Provider represents a healthcare facility or service
type Provider struct {
	ID                 string            `json:"id" db:"id"`
	Name               string            `json:"name" db:"name"`
	Type               ProviderType      `json:"type" db:"provider_type"`
	Location           Location          `json:"location" db:"-"`
	ServiceCategories  []ServiceCategory `json:"service_categories" db:"-"`
	Capacity           *int              `json:"capacity,omitempty" db:"capacity"`
	CurrentWaitMinutes *int              `json:"current_wait_minutes,omitempty" db:"current_wait_minutes"`
	IsActive           bool              `json:"is_active" db:"is_active"`
	CreatedAt          time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at" db:"updated_at"`
}

// Offers reports whether the provider serves the given category
func (p *Provider) Offers(category ServiceCategory) bool {
	for _, c := range p.ServiceCategories {
		if c == category {
			return true
		}
	}
	return false
}

// IsOutreachModel reports whether the provider runs an underserved-area
// service model (mobile units and pop-up sites)
func (p *Provider) IsOutreachModel() bool {
	return p.Type == ProviderTypeMobile || p.Type == ProviderTypePopUp
}
