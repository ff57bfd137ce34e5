package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/TrackDesk/internal/app/page"
	"github.com/sifan077/TrackDesk/internal/app/service"
	"github.com/sifan077/TrackDesk/internal/app/session"
	"github.com/sifan077/TrackDesk/internal/http/middleware"
	"github.com/sifan077/TrackDesk/internal/http/view"
	"go.uber.org/zap"
)

// PageDeps groups dependencies required by the page handlers.
type PageDeps struct {
	Logger   *zap.Logger
	Pages    service.PageService
	AppTitle string
	// Submit wraps the form posts, typically with the rate limiter.
	Submit fiber.Handler
	Now    func() time.Time
}

// PageHandler serves the create and retrieve pages and their form actions.
type PageHandler struct {
	logger   *zap.Logger
	pages    service.PageService
	appTitle string
	submit   fiber.Handler
	now      func() time.Time
}

// NewPageHandler creates a page handler with the provided dependencies.
func NewPageHandler(deps PageDeps) *PageHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	submit := deps.Submit
	if submit == nil {
		submit = func(c *fiber.Ctx) error { return c.Next() }
	}
	return &PageHandler{
		logger:   logger,
		pages:    deps.Pages,
		appTitle: deps.AppTitle,
		submit:   submit,
		now:      now,
	}
}

// Register wires page routes onto the provided router.
func (h *PageHandler) Register(router fiber.Router) {
	for _, kind := range page.Kinds {
		router.Get(kind.Path(), h.Show(kind))
		router.Post(kind.Path(), h.submit, h.Submit(kind))
	}
	router.Post("/clear/:page", h.Clear)
	router.Post("/theme/toggle", h.ToggleTheme)
	router.Post("/reload", h.Reload)
}

// Show handles GET / and GET /retrieve.
func (h *PageHandler) Show(kind page.Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st, err := h.pages.View(c.UserContext(), middleware.SessionIDFrom(c))
		if err != nil {
			h.logger.Error("failed to load session", zap.Error(err))
			return fiber.ErrServiceUnavailable
		}
		return h.render(c, st, kind, fiber.StatusOK)
	}
}

// Submit handles the form post of a page and renders its outcome.
func (h *PageHandler) Submit(kind page.Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		code := c.FormValue("isrc")

		st, err := h.pages.Submit(c.UserContext(), middleware.SessionIDFrom(c), kind, code)
		switch {
		case errors.Is(err, page.ErrEmptyCode):
			return h.render(c, st, kind, fiber.StatusUnprocessableEntity)
		case errors.Is(err, page.ErrBusy):
			return h.render(c, st, kind, fiber.StatusConflict)
		case err != nil:
			h.logger.Error("failed to submit page", zap.Error(err), zap.String("page", string(kind)))
			return fiber.ErrServiceUnavailable
		}

		return h.render(c, st, kind, fiber.StatusOK)
	}
}

// Clear handles POST /clear/:page.
func (h *PageHandler) Clear(c *fiber.Ctx) error {
	kind, ok := page.ParseKind(c.Params("page"))
	if !ok {
		return fiber.ErrNotFound
	}

	st, err := h.pages.Clear(c.UserContext(), middleware.SessionIDFrom(c), kind)
	switch {
	case errors.Is(err, page.ErrBusy):
		return h.render(c, st, kind, fiber.StatusConflict)
	case err != nil:
		h.logger.Error("failed to clear page", zap.Error(err), zap.String("page", string(kind)))
		return fiber.ErrServiceUnavailable
	}
	return c.Redirect(kind.Path(), fiber.StatusSeeOther)
}

// ToggleTheme handles POST /theme/toggle and returns to the page it came from.
func (h *PageHandler) ToggleTheme(c *fiber.Ctx) error {
	mode, err := h.pages.ToggleTheme(c.UserContext(), middleware.SessionIDFrom(c))
	if err != nil {
		h.logger.Error("failed to toggle theme", zap.Error(err))
		return fiber.ErrServiceUnavailable
	}
	h.logger.Debug("theme toggled", zap.String("theme", string(mode)))
	return c.Redirect(returnPath(c.FormValue("return")), fiber.StatusSeeOther)
}

// Reload handles POST /reload from the fallback page: the session state is
// dropped and the visitor starts over on the first page.
func (h *PageHandler) Reload(c *fiber.Ctx) error {
	if err := h.pages.Reset(c.UserContext(), middleware.SessionIDFrom(c)); err != nil {
		h.logger.Error("failed to reset session", zap.Error(err))
		return fiber.ErrServiceUnavailable
	}
	return c.Redirect(page.KindCreate.Path(), fiber.StatusSeeOther)
}

func (h *PageHandler) render(c *fiber.Ctx, st *session.State, kind page.Kind, status int) error {
	c.Locals(middleware.LocalTheme, st.Theme)
	c.Locals(middleware.LocalRetryPath, kind.Path())

	data := h.pageData(st, kind)
	out := view.Boundary(func() (string, error) { return view.RenderPage(data) })
	if !out.OK() {
		return out.Incident
	}

	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Status(status).
		Type("html", "utf-8").
		SendString(out.HTML)
}

func (h *PageHandler) pageData(st *session.State, kind page.Kind) view.PageData {
	p := st.Page(kind)

	nav := make([]view.NavLink, 0, len(page.Kinds))
	for _, k := range page.Kinds {
		nav = append(nav, view.NavLink{Label: k.Title(), Href: k.Path(), Active: k == kind})
	}

	return view.PageData{
		AppTitle:   h.appTitle,
		Title:      kind.Title(),
		Theme:      st.Theme,
		ReturnPath: kind.Path(),
		Nav:        nav,
		Form: view.FormData{
			Action:      kind.Path(),
			ClearAction: "/clear/" + string(kind),
			Code:        p.Code,
			Error:       p.Error,
			Busy:        p.Busy(h.now()),
			SubmitLabel: kind.SubmitLabel(),
			BusyLabel:   kind.BusyLabel(),
		},
		Card: view.NewTrackCard(p.Track, p.CoverURL),
	}
}

// returnPath only allows the page paths so the toggle cannot redirect off-site.
func returnPath(raw string) string {
	for _, k := range page.Kinds {
		if raw == k.Path() {
			return raw
		}
	}
	return page.KindCreate.Path()
}
