package checks

import (
	"errors"
	"time"
)

// CheckStatus represents check lifecycle state.
type CheckStatus string

const (
	StatusOpen        CheckStatus = "OPEN"
	StatusDeposited   CheckStatus = "DEPOSITED"
	StatusReturned    CheckStatus = "RETURNED"
	StatusRepresented CheckStatus = "REPRESENTED"
	StatusCleared     CheckStatus = "CLEARED"
)

// Physical-custody locations derived from transitions.
const (
	LocationOnHand    = "on hand"
	LocationInTransit = "in transit"
	LocationCleared   = "cleared"
	LocationReturned  = "returned"
)

var (
	ErrNotFound          = errors.New("checks: check not found")
	ErrCheckCleared      = errors.New("checks: operation not permitted on cleared check")
	ErrInvalidTransition = errors.New("checks: invalid status transition")
	ErrUnknownStatus     = errors.New("checks: unknown status")
)

// Check is a customer check registered against a receivable payment.
type Check struct {
	ID          int64       `json:"id"`
	Number      string      `json:"number"`
	Bank        string      `json:"bank"`
	Agency      string      `json:"agency"`
	Account     string      `json:"account"`
	PayerName   string      `json:"payer_name"`
	PayerTaxID  string      `json:"payer_tax_id"`
	Amount      float64     `json:"amount"`
	GoodForDate time.Time   `json:"good_for_date"`
	Status      CheckStatus `json:"status"`
	Location    string      `json:"location"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// transitions is the single source of truth for the check lifecycle.
// CLEARED has no outgoing edges and is terminal.
var transitions = map[CheckStatus][]CheckStatus{
	StatusOpen:        {StatusDeposited},
	StatusDeposited:   {StatusCleared, StatusReturned},
	StatusReturned:    {StatusRepresented},
	StatusRepresented: {StatusDeposited},
	StatusCleared:     {},
}

// locationFor maps each post-transition status to the custody location
// it implies. The location stays independently editable until cleared.
var locationFor = map[CheckStatus]string{
	StatusOpen:        LocationOnHand,
	StatusDeposited:   LocationInTransit,
	StatusReturned:    LocationReturned,
	StatusRepresented: LocationInTransit,
	StatusCleared:     LocationCleared,
}

// KnownStatus reports whether s is a valid lifecycle status.
func KnownStatus(s CheckStatus) bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether from may move to target.
func CanTransition(from, target CheckStatus) error {
	if !KnownStatus(from) || !KnownStatus(target) {
		return ErrUnknownStatus
	}
	if from == StatusCleared {
		return ErrCheckCleared
	}
	for _, next := range transitions[from] {
		if next == target {
			return nil
		}
	}
	return ErrInvalidTransition
}
