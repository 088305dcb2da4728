package patients

import (
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("patients: patient not found")
	ErrDuplicate = errors.New("patients: tax id already registered")
)

// Patient is clinic master data for a person being billed.
type Patient struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	TaxID         string     `json:"tax_id"`
	BirthDate     *time.Time `json:"birth_date,omitempty"`
	Sex           string     `json:"sex,omitempty"`
	Phone         string     `json:"phone,omitempty"`
	Email         string     `json:"email,omitempty"`
	InsurancePlan string     `json:"insurance_plan,omitempty"`
	Active        bool       `json:"active"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
