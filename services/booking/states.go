package booking

import (
	"fmt"
	"time"

	"wedbook/models"

	"github.com/google/uuid"
)

// State is one of the mutually exclusive submission phases.
type State string

const (
	StateIdle                     State = "idle"
	StateValidating               State = "validating"
	StateConfirmingAvailability   State = "confirming_availability"
	StateAwaitingUserConfirmation State = "awaiting_user_confirmation"
	StateSubmitting               State = "submitting"
	StateSuccess                  State = "success"
	StateError                    State = "error"
)

// Terminal reports whether the state ends a submission attempt.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateError
}

type event string

const (
	evSubmit      event = "submit"
	evValid       event = "valid"
	evInvalid     event = "invalid"
	evAvailable   event = "available"
	evUnavailable event = "unavailable"
	evConfirm     event = "confirm"
	evCancel      event = "cancel"
	evSucceeded   event = "succeeded"
	evFailed      event = "failed"
	evReset       event = "reset"
)

// transitions is the whole state machine. Anything not listed is illegal.
var transitions = map[State]map[event]State{
	StateIdle: {
		evSubmit: StateValidating,
	},
	StateValidating: {
		evValid:   StateConfirmingAvailability,
		evInvalid: StateError,
	},
	StateConfirmingAvailability: {
		evAvailable:   StateAwaitingUserConfirmation,
		evUnavailable: StateError,
	},
	StateAwaitingUserConfirmation: {
		evConfirm: StateSubmitting,
		evCancel:  StateIdle,
	},
	StateSubmitting: {
		evSucceeded: StateSuccess,
		evFailed:    StateError,
	},
	StateSuccess: {
		evReset: StateIdle,
	},
	StateError: {
		evReset: StateIdle,
	},
}

// Transition is one entry of a session's history.
type Transition struct {
	From State     `json:"from"`
	To   State     `json:"to"`
	At   time.Time `json:"at"`
}

// Summary is shown to the couple before anything is sent to the store.
type Summary struct {
	VendorID               string   `json:"vendorId"`
	VendorName             string   `json:"vendorName,omitempty"`
	ServiceName            string   `json:"serviceName,omitempty"`
	ServiceType            string   `json:"serviceType,omitempty"`
	EventDate              string   `json:"eventDate"`
	EventTime              string   `json:"eventTime,omitempty"`
	EventLocation          string   `json:"eventLocation,omitempty"`
	GuestCount             *int     `json:"guestCount,omitempty"`
	ContactPerson          string   `json:"contactPerson,omitempty"`
	ContactPhone           string   `json:"contactPhone"`
	ContactEmail           string   `json:"contactEmail,omitempty"`
	PreferredContactMethod string   `json:"preferredContactMethod"`
	Warnings               []string `json:"warnings,omitempty"`
	Text                   string   `json:"text"`
}

// Outcome is the result of a submission attempt.
type Outcome struct {
	State               State             `json:"state"`
	BookingID           string            `json:"bookingId,omitempty"`
	Status              string            `json:"status,omitempty"`
	Confirmed           bool              `json:"confirmed"`
	PendingVerification bool              `json:"pendingVerification"`
	Placeholder         bool              `json:"placeholder"`
	Cancelled           bool              `json:"cancelled,omitempty"`
	Message             string            `json:"message"`
	ErrorKind           string            `json:"errorKind,omitempty"`
	FieldErrors         map[string]string `json:"fieldErrors,omitempty"`
	Retryable           bool              `json:"retryable"`
	SupportContact      string            `json:"supportContact,omitempty"`
	Warnings            []string          `json:"warnings,omitempty"`
}

// Session is one workflow instance. It is plain data so it can be parked
// in a session store between the prepare and confirm requests.
type Session struct {
	ID           string                     `json:"id"`
	State        State                      `json:"state"`
	Request      *models.BookingRequest     `json:"request,omitempty"`
	Availability *models.AvailabilityResult `json:"availability,omitempty"`
	Summary      *Summary                   `json:"summary,omitempty"`
	Warnings     []string                   `json:"warnings,omitempty"`
	FieldErrors  map[string]string          `json:"fieldErrors,omitempty"`
	Outcome      *Outcome                   `json:"outcome,omitempty"`
	Message      string                     `json:"message,omitempty"`
	ErrorKind    string                     `json:"errorKind,omitempty"`
	Attempts     int                        `json:"attempts"` // attempts that reached submitting
	History      []Transition               `json:"history"`
	CreatedAt    time.Time                  `json:"createdAt"`
	UpdatedAt    time.Time                  `json:"updatedAt"`

	err error // typed error of the last failure; lost across a session store round trip
}

// NewSession starts an idle workflow instance.
func NewSession(now time.Time) *Session {
	return &Session{
		ID:        uuid.New().String(),
		State:     StateIdle,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Err returns the typed error of the last failure, if still held in memory.
func (s *Session) Err() error { return s.err }

// transition is the single place a session changes state.
func (s *Session) transition(ev event, now time.Time) error {
	next, ok := transitions[s.State][ev]
	if !ok {
		return fmt.Errorf("%w: %s on %s", ErrIllegalTransition, ev, s.State)
	}
	s.History = append(s.History, Transition{From: s.State, To: next, At: now})
	s.State = next
	s.UpdatedAt = now
	return nil
}

// clear drops everything tied to the previous attempt.
func (s *Session) clear() {
	s.Request = nil
	s.Availability = nil
	s.Summary = nil
	s.Warnings = nil
	s.FieldErrors = nil
	s.Outcome = nil
	s.Message = ""
	s.ErrorKind = ""
	s.err = nil
}
