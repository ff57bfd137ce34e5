package session

import (
	"context"
	"errors"
	"time"

	"github.com/sifan077/TrackDesk/internal/app/page"
	"github.com/sifan077/TrackDesk/internal/app/theme"
)

// ErrNotFound signals that no live session exists for the id.
var ErrNotFound = errors.New("session not found")

// State is everything kept for one visitor.
type State struct {
	ID        string                    `json:"id"`
	Theme     theme.Mode                `json:"theme"`
	Pages     map[page.Kind]*page.State `json:"pages"`
	UpdatedAt time.Time                 `json:"updated_at"`
}

// NewState returns a fresh session in light mode with both pages idle.
func NewState(id string) *State {
	s := &State{
		ID:    id,
		Theme: theme.Light,
		Pages: make(map[page.Kind]*page.State, len(page.Kinds)),
	}
	for _, k := range page.Kinds {
		p := page.New(k)
		s.Pages[k] = &p
	}
	return s
}

// Page returns the state of the page, creating it when missing.
func (s *State) Page(k page.Kind) *page.State {
	if s.Pages == nil {
		s.Pages = make(map[page.Kind]*page.State, len(page.Kinds))
	}
	p, ok := s.Pages[k]
	if !ok || p == nil {
		fresh := page.New(k)
		p = &fresh
		s.Pages[k] = p
	}
	return p
}

func (s *State) clone() *State {
	out := *s
	out.Pages = make(map[page.Kind]*page.State, len(s.Pages))
	for k, p := range s.Pages {
		if p == nil {
			continue
		}
		cp := *p
		out.Pages[k] = &cp
	}
	return &out
}

// Store persists visitor sessions. Update runs fn against the current state
// (a fresh one when the session does not exist) and saves the result
// atomically with respect to other Update calls on the same id.
type Store interface {
	Load(ctx context.Context, id string) (*State, error)
	Update(ctx context.Context, id string, fn func(*State) error) (*State, error)
	Delete(ctx context.Context, id string) error
}
