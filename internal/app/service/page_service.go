package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sifan077/TrackDesk/internal/app/client"
	"github.com/sifan077/TrackDesk/internal/app/model"
	"github.com/sifan077/TrackDesk/internal/app/page"
	"github.com/sifan077/TrackDesk/internal/app/session"
	"github.com/sifan077/TrackDesk/internal/app/theme"
	"go.uber.org/zap"
)

// Submission results reported to the SubmissionObserver.
const (
	ResultValidation = "validation"
	ResultBusy       = "busy"
	ResultSuccess    = "success"
	ResultFailed     = "failed"
	ResultStale      = "stale"
)

const resolveAttempts = 3

var resolveBackoff = 20 * time.Millisecond

// PageService defines behaviour-level operations on the visitor's pages.
type PageService interface {
	View(ctx context.Context, sessionID string) (*session.State, error)
	Submit(ctx context.Context, sessionID string, kind page.Kind, code string) (*session.State, error)
	Clear(ctx context.Context, sessionID string, kind page.Kind) (*session.State, error)
	ToggleTheme(ctx context.Context, sessionID string) (theme.Mode, error)
	Reset(ctx context.Context, sessionID string) error
}

// SubmissionObserver counts form submissions.
type SubmissionObserver interface {
	ObserveSubmission(page, result string)
}

// PageDeps groups dependencies required by the page service.
type PageDeps struct {
	Logger   *zap.Logger
	Sessions session.Store
	API      client.TrackAPI
	Lookups  LookupRecorder
	Metrics  SubmissionObserver
	Now      func() time.Time
}

type pageService struct {
	logger   *zap.Logger
	sessions session.Store
	api      client.TrackAPI
	lookups  LookupRecorder
	metrics  SubmissionObserver
	now      func() time.Time
}

// NewPageService returns a service implementation backed by the given dependencies.
func NewPageService(deps PageDeps) PageService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &pageService{
		logger:   logger,
		sessions: deps.Sessions,
		api:      deps.API,
		lookups:  deps.Lookups,
		metrics:  deps.Metrics,
		now:      now,
	}
}

// View returns the visitor's state, creating a fresh session when needed.
func (s *pageService) View(ctx context.Context, sessionID string) (*session.State, error) {
	st, err := s.sessions.Load(ctx, sessionID)
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, session.ErrNotFound) {
		return nil, fmt.Errorf("load session: %w", err)
	}

	st, err = s.sessions.Update(ctx, sessionID, func(*session.State) error { return nil })
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return st, nil
}

// Submit runs one Idle→Submitting→Success|Failed cycle. It returns
// page.ErrEmptyCode or page.ErrBusy together with the current state when no
// backend call was made.
func (s *pageService) Submit(ctx context.Context, sessionID string, kind page.Kind, code string) (*session.State, error) {
	var (
		ticket   page.Ticket
		beginErr error
	)
	st, err := s.sessions.Update(ctx, sessionID, func(st *session.State) error {
		ticket, beginErr = st.Page(kind).Begin(code, s.now())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("begin submit: %w", err)
	}

	switch {
	case errors.Is(beginErr, page.ErrEmptyCode):
		s.observe(kind, ResultValidation)
		return st, beginErr
	case errors.Is(beginErr, page.ErrBusy):
		s.observe(kind, ResultBusy)
		return st, beginErr
	}

	s.logger.Debug("page submitting",
		zap.String("page", string(kind)),
		zap.String("isrc", ticket.Code),
		zap.Uint64("generation", ticket.Generation),
	)

	start := s.now()
	track, callErr := s.call(ctx, kind, ticket.Code)
	elapsed := s.now().Sub(start)

	coverURL := ""
	if callErr == nil {
		coverURL = s.api.CoverURL(ticket.Code)
	}

	st, resolved, err := s.resolve(ctx, sessionID, ticket, track, coverURL, callErr)
	if err != nil {
		// the page stays Submitting until page.MaxSubmitDuration frees it
		s.logger.Error("failed to save submit result",
			zap.Error(err),
			zap.String("page", string(kind)),
			zap.Uint64("generation", ticket.Generation),
		)
		s.record(kind, ticket.Code, callErr, elapsed)
		return nil, fmt.Errorf("resolve submit: %w", err)
	}

	s.record(kind, ticket.Code, callErr, elapsed)

	switch {
	case !resolved:
		s.logger.Debug("stale response discarded",
			zap.String("page", string(kind)),
			zap.Uint64("generation", ticket.Generation),
		)
		s.observe(kind, ResultStale)
	case callErr != nil:
		s.observe(kind, ResultFailed)
	default:
		s.observe(kind, ResultSuccess)
	}

	return st, nil
}

// Clear resets the page; page.ErrBusy is returned while a request is in flight.
func (s *pageService) Clear(ctx context.Context, sessionID string, kind page.Kind) (*session.State, error) {
	var clearErr error
	st, err := s.sessions.Update(ctx, sessionID, func(st *session.State) error {
		clearErr = st.Page(kind).Clear(s.now())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("clear page: %w", err)
	}
	if clearErr == nil {
		s.logger.Debug("page cleared", zap.String("page", string(kind)))
	}
	return st, clearErr
}

// ToggleTheme flips the session's UI mode; it is the only writer of State.Theme.
func (s *pageService) ToggleTheme(ctx context.Context, sessionID string) (theme.Mode, error) {
	st, err := s.sessions.Update(ctx, sessionID, func(st *session.State) error {
		st.Theme = theme.Parse(string(st.Theme)).Next()
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("toggle theme: %w", err)
	}
	return st.Theme, nil
}

// Reset drops the whole session.
func (s *pageService) Reset(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("reset session: %w", err)
	}
	return nil
}

// resolve saves the submit result, retrying a failing store a few times. It
// ignores cancellation of ctx: the visitor leaving must not strand the page in
// Submitting.
func (s *pageService) resolve(ctx context.Context, sessionID string, ticket page.Ticket, track *model.Track, coverURL string, callErr error) (*session.State, bool, error) {
	ctx = context.WithoutCancel(ctx)

	var (
		st       *session.State
		resolved bool
		err      error
	)
	for attempt := 1; attempt <= resolveAttempts; attempt++ {
		st, err = s.sessions.Update(ctx, sessionID, func(st *session.State) error {
			resolved = st.Page(ticket.Kind).Resolve(ticket, track, coverURL, callErr)
			return nil
		})
		if err == nil {
			return st, resolved, nil
		}
		s.logger.Warn("retrying submit result save",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.String("page", string(ticket.Kind)),
		)
		if attempt < resolveAttempts {
			time.Sleep(time.Duration(attempt) * resolveBackoff)
		}
	}
	return nil, false, err
}

func (s *pageService) call(ctx context.Context, kind page.Kind, code string) (*model.Track, error) {
	if kind == page.KindRetrieve {
		return s.api.Fetch(ctx, code)
	}
	return s.api.Create(ctx, code)
}

func (s *pageService) record(kind page.Kind, code string, callErr error, elapsed time.Duration) {
	if s.lookups == nil {
		return
	}

	event := model.LookupEvent{
		Operation:  kind.Operation(),
		ISRC:       code,
		Outcome:    model.OutcomeSuccess,
		DurationMS: elapsed.Milliseconds(),
	}
	if callErr != nil {
		event.Outcome = model.OutcomeFailed
		event.Message = page.Message(callErr, kind.FallbackMessage())
		var reqErr *client.RequestError
		if errors.As(callErr, &reqErr) {
			event.Status = reqErr.Status
		}
	}

	if err := s.lookups.Record(event); err != nil {
		s.logger.Warn("failed to publish lookup event", zap.Error(err), zap.String("isrc", code))
	}
}

func (s *pageService) observe(kind page.Kind, result string) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveSubmission(string(kind), result)
}
