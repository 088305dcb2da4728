package cashbook

import (
	"errors"
	"time"
)

// SessionStatus represents cash session state.
type SessionStatus string

const (
	StatusOpen   SessionStatus = "OPEN"
	StatusClosed SessionStatus = "CLOSED"
)

// MovementKind classifies a cash movement.
type MovementKind string

const (
	KindIn  MovementKind = "IN"
	KindOut MovementKind = "OUT"
)

var (
	ErrNotFound      = errors.New("cashbook: session not found")
	ErrRegisterBusy  = errors.New("cashbook: register already has an open session")
	ErrSessionClosed = errors.New("cashbook: session is closed")
)

// CashSession is one operator shift at a register.
type CashSession struct {
	ID              int64         `json:"id"`
	RegisterName    string        `json:"register_name"`
	Operator        string        `json:"operator"`
	OpenedAt        time.Time     `json:"opened_at"`
	ClosedAt        *time.Time    `json:"closed_at,omitempty"`
	OpeningBalance  float64       `json:"opening_balance"`
	ClosingBalance  float64       `json:"closing_balance"`
	ExpectedBalance float64       `json:"expected_balance"`
	Difference      float64       `json:"difference"`
	Status          SessionStatus `json:"status"`
}

// CashMovement is a single in or out entry within a session.
type CashMovement struct {
	ID          int64        `json:"id"`
	SessionID   int64        `json:"session_id"`
	Kind        MovementKind `json:"kind"`
	Amount      float64      `json:"amount"`
	Description string       `json:"description"`
	At          time.Time    `json:"at"`
}
