package view

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
)

// Incident describes one caught rendering failure.
type Incident struct {
	ID    string
	Cause error
	Stack []byte
	Time  time.Time
}

func (i *Incident) Error() string {
	return fmt.Sprintf("render incident %s: %v", i.ID, i.Cause)
}

func (i *Incident) Unwrap() error { return i.Cause }

// NewIncident wraps a recovered value or error into an Incident with a fresh id.
func NewIncident(cause any, stack []byte) *Incident {
	err, ok := cause.(error)
	if !ok {
		err = fmt.Errorf("panic: %v", cause)
	}
	return &Incident{
		ID:    uuid.NewString(),
		Cause: err,
		Stack: stack,
		Time:  time.Now().UTC(),
	}
}

// Outcome is the result of a guarded render: HTML, or the incident that
// prevented it.
type Outcome struct {
	HTML     string
	Incident *Incident
}

func (o Outcome) OK() bool { return o.Incident == nil }

// Boundary runs render and converts both returned errors and panics into an
// Incident.
func Boundary(render func() (string, error)) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Incident: NewIncident(r, debug.Stack())}
		}
	}()

	html, err := render()
	if err != nil {
		return Outcome{Incident: NewIncident(err, debug.Stack())}
	}
	return Outcome{HTML: html}
}
