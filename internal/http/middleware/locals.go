package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/TrackDesk/internal/app/theme"
)

// Keys under which middleware and handlers share request values.
const (
	LocalRequestID = "request_id"
	LocalSessionID = "session_id"
	LocalTheme     = "theme"
	LocalRetryPath = "retry_path"
)

// RequestIDFrom returns the request id set by RequestID, or "".
func RequestIDFrom(c *fiber.Ctx) string {
	rid, _ := c.Locals(LocalRequestID).(string)
	return rid
}

// SessionIDFrom returns the visitor session id set by Session, or "".
func SessionIDFrom(c *fiber.Ctx) string {
	sid, _ := c.Locals(LocalSessionID).(string)
	return sid
}

func themeFrom(c *fiber.Ctx) theme.Mode {
	mode, _ := c.Locals(LocalTheme).(theme.Mode)
	return theme.Parse(string(mode))
}
