package middleware

import (
	"errors"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/TrackDesk/internal/http/view"
	"go.uber.org/zap"
)

// IncidentCounter counts render incidents.
type IncidentCounter interface {
	IncRenderIncident()
}

// Recovery is the error boundary of the page routes. A panic anywhere below
// it, or a handler returning a *view.Incident, is logged once and replaced by
// the fallback page carrying the incident id.
func Recovery(logger *zap.Logger, counter IncidentCounter) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = renderIncident(c, logger, counter, view.NewIncident(r, debug.Stack()))
			}
		}()

		err = c.Next()

		var incident *view.Incident
		if errors.As(err, &incident) {
			return renderIncident(c, logger, counter, incident)
		}
		return err
	}
}

func renderIncident(c *fiber.Ctx, logger *zap.Logger, counter IncidentCounter, incident *view.Incident) error {
	fields := []zap.Field{
		zap.String("incident_id", incident.ID),
		zap.Error(incident.Cause),
		zap.ByteString("stack", incident.Stack),
		zap.Time("timestamp", incident.Time),
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
	}
	if rid := RequestIDFrom(c); rid != "" {
		fields = append(fields, zap.String("request_id", rid))
	}
	logger.Error("render panic recovered", fields...)

	if counter != nil {
		counter.IncRenderIncident()
	}

	retry, _ := c.Locals(LocalRetryPath).(string)
	if retry == "" && c.Method() == fiber.MethodGet {
		retry = c.Path()
	}

	html := view.RenderFallback(view.FallbackData{
		IncidentID: incident.ID,
		RetryURL:   retry,
		Theme:      themeFrom(c),
	})

	// drop anything the failed handler may have written
	c.Response().ResetBody()
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Status(fiber.StatusInternalServerError).
		Type("html", "utf-8").
		SendString(html)
}
