package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/canteen/internal/session"
)

type sessionKey struct{}

// withSession resolves the session cookie, creating a session for new or
// expired cookies. The cookie is re-issued on every request so its MaxAge
// tracks the store's sliding idle timeout.
func (h *Handler) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sess *session.Session
		if c, err := r.Cookie(h.cfg.CookieName); err == nil {
			sess, _ = h.sessions.Get(c.Value)
		}
		if sess == nil {
			sess = h.sessions.Create()
			zctx.From(r.Context()).Debug("Session created", zap.String("session_id", sess.ID))
		}
		http.SetCookie(w, h.sessionCookie(sess.ID))
		ctx := context.WithValue(r.Context(), sessionKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) sessionCookie(id string) *http.Cookie {
	return &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(h.cfg.CookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

// sessionFrom panics outside withSession.
func sessionFrom(ctx context.Context) *session.Session {
	return ctx.Value(sessionKey{}).(*session.Session)
}
