package domain

import (
	"errors"
	"fmt"
	"time"
)

// CodeTTL is how long a requested login code stays usable.
const CodeTTL = 5 * time.Minute

var (
	ErrAuthInProgress   = errors.New("authentication already in progress")
	ErrNoPendingCode    = errors.New("no login code has been requested")
	ErrCodeExpired      = errors.New("login code expired, request a new one")
	ErrPasswordRequired = errors.New("two-factor password required but not configured")
	ErrNoPendingTwoFA   = errors.New("no two-factor challenge is pending")
)

// Account is the logged-in user.
type Account struct {
	ID        string `json:"id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// DisplayName picks the friendliest available name.
func (a Account) DisplayName() string {
	switch {
	case a.Username != "":
		return "@" + a.Username
	case a.FirstName != "":
		return a.FirstName
	default:
		return a.ID
	}
}

// Challenge is the outstanding login code request.
type Challenge struct {
	Phone       string
	CodeHash    string
	RequestedAt time.Time
}

// Expired reports whether the code can no longer be submitted at now.
func (c Challenge) Expired(now time.Time) bool {
	return now.Sub(c.RequestedAt) > CodeTTL
}

// Status is a read-only view of the login flow.
type Status struct {
	State      State      `json:"state"`
	Account    *Account   `json:"account,omitempty"`
	PendingFor string     `json:"pending_for,omitempty"`
	FloodUntil *time.Time `json:"flood_until,omitempty"`
	InProgress bool       `json:"in_progress"`
}

// PlatformError is a classified failure from the messaging platform.
type PlatformError struct {
	Kind ErrorKind
	// Wait is set for flood_wait.
	Wait time.Duration
	// DC is the target datacenter for migrate.
	DC  int
	Err error
}

func (e *PlatformError) Error() string {
	switch e.Kind {
	case ErrorKindFloodWait:
		return fmt.Sprintf("flood wait: retry in %s", e.Wait)
	case ErrorKindMigrate:
		return fmt.Sprintf("migrate to datacenter %d", e.DC)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Kind, e.Err)
		}
		return e.Kind.String()
	}
}

func (e *PlatformError) Unwrap() error { return e.Err }

// AsPlatformError extracts a *PlatformError of the given kind from err.
func AsPlatformError(err error, kind ErrorKind) (*PlatformError, bool) {
	var pe *PlatformError
	if errors.As(err, &pe) && pe.Kind == kind {
		return pe, true
	}
	return nil, false
}

// FloodWait builds a flood_wait error.
func FloodWait(wait time.Duration, err error) *PlatformError {
	return &PlatformError{Kind: ErrorKindFloodWait, Wait: wait, Err: err}
}

// Migrate builds a migrate error.
func Migrate(dc int, err error) *PlatformError {
	return &PlatformError{Kind: ErrorKindMigrate, DC: dc, Err: err}
}

// NewPlatformError builds an error of any other kind.
func NewPlatformError(kind ErrorKind, err error) *PlatformError {
	return &PlatformError{Kind: kind, Err: err}
}

// HumanizeWait renders a flood-wait duration for the operator.
func HumanizeWait(d time.Duration) string {
	d = d.Round(time.Second)
	hours := int(d / time.Hour)
	minutes := int(d % time.Hour / time.Minute)
	seconds := int(d % time.Minute / time.Second)

	switch {
	case hours > 0 && minutes > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh", hours)
	case minutes > 0 && seconds > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm", minutes)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
