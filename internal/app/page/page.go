package page

import (
	"errors"
	"strings"
	"time"

	"github.com/sifan077/TrackDesk/internal/app/client"
	"github.com/sifan077/TrackDesk/internal/app/model"
)

var (
	// ErrEmptyCode is the validation failure for a blank ISRC; nothing is sent to the backend.
	ErrEmptyCode = errors.New("page: empty isrc")
	// ErrBusy signals a submit or clear while a request is still outstanding.
	ErrBusy = errors.New("page: request in flight")
)

const (
	validationMessage = "Please enter a valid ISRC"
	networkMessage    = "Unable to reach the track service. Please try again."
)

// MaxSubmitDuration bounds how long a page may stay Submitting. A page found
// Submitting past this age is treated as abandoned (its request can never
// resolve it because the generation has to match). Set it with SubmitWindow
// at startup so it follows the backend client timeout.
var MaxSubmitDuration = 2 * time.Minute

// submitGrace covers saving the result after the backend call returns.
const submitGrace = 5 * time.Second

// SubmitWindow is the longest a submission can legitimately take when backend
// calls time out after clientTimeout.
func SubmitWindow(clientTimeout time.Duration) time.Duration {
	if clientTimeout <= 0 {
		return MaxSubmitDuration
	}
	return clientTimeout + submitGrace
}

// Status is the lifecycle position of a page.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusSubmitting Status = "submitting"
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
)

// State is the per-visitor form state of one page.
type State struct {
	Kind       Kind         `json:"kind"`
	Code       string       `json:"code"`
	Status     Status       `json:"status"`
	Error      string       `json:"error,omitempty"`
	Track      *model.Track `json:"track,omitempty"`
	CoverURL   string       `json:"cover_url,omitempty"`
	Generation uint64       `json:"generation"`
	StartedAt  time.Time    `json:"started_at,omitempty"`
}

// Ticket identifies one submission. Resolve only applies it while the page
// generation still matches.
type Ticket struct {
	Kind       Kind
	Code       string
	Generation uint64
}

// New returns the initial state of a page.
func New(kind Kind) State {
	return State{Kind: kind, Status: StatusIdle}
}

// Busy reports whether a request is outstanding at now.
func (s *State) Busy(now time.Time) bool {
	return s.Status == StatusSubmitting && now.Sub(s.StartedAt) < MaxSubmitDuration
}

// SetCode updates the draft without touching the rest of the state.
func (s *State) SetCode(code string) {
	s.Code = code
}

// Begin validates the draft and moves the page to Submitting.
func (s *State) Begin(code string, now time.Time) (Ticket, error) {
	if s.Busy(now) {
		return Ticket{}, ErrBusy
	}

	s.SetCode(code)
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		s.Error = validationMessage
		return Ticket{}, ErrEmptyCode
	}

	s.Error = ""
	s.Track = nil
	s.CoverURL = ""
	s.Status = StatusSubmitting
	s.StartedAt = now
	s.Generation++

	return Ticket{Kind: s.Kind, Code: trimmed, Generation: s.Generation}, nil
}

// Resolve moves a Submitting page to Success or Failed. It returns false and
// leaves the state alone when the ticket is stale.
func (s *State) Resolve(t Ticket, track *model.Track, coverURL string, err error) bool {
	if s.Status != StatusSubmitting || t.Generation != s.Generation {
		return false
	}

	s.StartedAt = time.Time{}
	if err != nil {
		s.Status = StatusFailed
		s.Error = Message(err, s.Kind.FallbackMessage())
		return true
	}

	s.Status = StatusSuccess
	s.Track = track
	s.CoverURL = coverURL
	return true
}

// Clear resets the page. It is refused while a request is outstanding.
func (s *State) Clear(now time.Time) error {
	if s.Busy(now) {
		return ErrBusy
	}
	*s = State{Kind: s.Kind, Status: StatusIdle, Generation: s.Generation + 1}
	return nil
}

// Message turns a client error into the text shown to the visitor.
func Message(err error, fallback string) string {
	var reqErr *client.RequestError
	if errors.As(err, &reqErr) && reqErr.Message != "" {
		return reqErr.Message
	}

	var netErr *client.NetworkError
	if errors.As(err, &netErr) {
		return networkMessage
	}

	return fallback
}
