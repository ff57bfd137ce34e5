package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/TrackDesk/internal/http/util"
	"go.uber.org/zap"
)

// SessionConfig configures the session cookie.
type SessionConfig struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Session resolves the visitor session id from the signed cookie, minting a
// new one when the cookie is missing, forged or expired. The cookie is
// re-signed on every request so active sessions slide forward.
func Session(signer *util.SessionSigner, cfg SessionConfig, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var (
			sid   string
			token string
			err   error
		)

		if raw := c.Cookies(cfg.CookieName); raw != "" {
			sid, err = signer.Validate(raw)
			if err != nil && !errors.Is(err, util.ErrInvalidToken) {
				return err
			}
		}

		if sid == "" {
			sid, token, err = signer.Issue()
			if err != nil {
				logger.Error("failed to issue session", zap.Error(err))
				return err
			}
			logger.Debug("session started", zap.String("session_id", sid))
		} else {
			token, err = signer.IssueFor(sid)
			if err != nil {
				return err
			}
		}

		c.Cookie(&fiber.Cookie{
			Name:     cfg.CookieName,
			Value:    token,
			Path:     "/",
			Expires:  time.Now().Add(cfg.TTL),
			HTTPOnly: true,
			Secure:   cfg.Secure,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		c.Locals(LocalSessionID, sid)
		return c.Next()
	}
}
