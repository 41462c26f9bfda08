package entities

import (
	"time"
)

// ServiceCategory represents the kind of care a patient is asking for
type ServiceCategory string

const (
	ServiceCategoryGeneral      ServiceCategory = "general"
	ServiceCategoryDental       ServiceCategory = "dental"
	ServiceCategoryMaternalCare ServiceCategory = "maternal_care"
	ServiceCategoryUrgentCare   ServiceCategory = "urgent_care"
	ServiceCategoryMentalHealth ServiceCategory = "mental_health"
	ServiceCategoryPediatric    ServiceCategory = "pediatric"
	ServiceCategoryVaccination  ServiceCategory = "vaccination"
	ServiceCategorySpecialty    ServiceCategory = "specialty"
	ServiceCategoryDiagnostic   ServiceCategory = "diagnostic"
)

// Valid reports whether the category is a known one
func (c ServiceCategory) Valid() bool {
	switch c {
	case ServiceCategoryGeneral, ServiceCategoryDental, ServiceCategoryMaternalCare,
		ServiceCategoryUrgentCare, ServiceCategoryMentalHealth, ServiceCategoryPediatric,
		ServiceCategoryVaccination, ServiceCategorySpecialty, ServiceCategoryDiagnostic:
		return true
	}
	return false
}

// RequestStatus represents the lifecycle state of a service request.
// Allowed transitions: pending -> matched -> fulfilled, pending -> cancelled.
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusMatched   RequestStatus = "matched"
	RequestStatusFulfilled RequestStatus = "fulfilled"
	RequestStatusCancelled RequestStatus = "cancelled"
)

// Urgency bounds for service requests. 1 is the most urgent.
const (
	UrgencyMin = 1
	UrgencyMax = 5
)

// Request represents a patient's ask for care
type Request struct {
	ID                string          `json:"id" db:"id"`
	PatientID         string          `json:"patient_id" db:"patient_id"`
	Location          Location        `json:"location" db:"-"`
	ServiceCategory   ServiceCategory `json:"service_category" db:"service_category"`
	UrgencyLevel      int             `json:"urgency_level" db:"urgency_level"`
	Status            RequestStatus   `json:"status" db:"status"`
	MatchedProviderID *string         `json:"matched_provider_id,omitempty" db:"matched_provider_id"`
	MatchScore        *float64        `json:"match_score,omitempty" db:"match_score"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

// IsHighUrgency reports whether the request should get urgent-case treatment
func (r *Request) IsHighUrgency() bool {
	return r.UrgencyLevel <= 2
}
