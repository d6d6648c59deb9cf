package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tenantgate.app/api-server/common/logger"
	"tenantgate.app/api-server/internal/session"
	"tenantgate.app/api-server/internal/store"
)

const (
	// SessionCookieName carries the session ID between requests.
	SessionCookieName = "tenantgate_session"

	sessionContextKey = "session_state"
)

// RequireSession resolves the session cookie to a session.State and aborts
// unauthenticated requests. Handlers behind it retrieve the state with
// SessionState.
func RequireSession(sessions store.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := sessionIDFromCookie(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}

		st, err := session.Load(c.Request.Context(), sessions, sessionID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				clearSessionCookie(c)
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to load session"})
			return
		}

		fields := logger.LogFields{SessionID: logger.Ptr(st.ID())}
		if orgExternalID := st.OrganizationID(); orgExternalID != "" {
			fields.OrganizationID = logger.Ptr(orgExternalID)
		}
		c.Request = c.Request.WithContext(logger.WithLogFields(c.Request.Context(), fields))

		c.Set(sessionContextKey, st)
		c.Next()
	}
}

// SessionState returns the state attached by RequireSession.
func SessionState(c *gin.Context) *session.State {
	st, _ := c.MustGet(sessionContextKey).(*session.State)
	return st
}

func sessionIDFromCookie(c *gin.Context) (int64, error) {
	cookie, err := c.Cookie(SessionCookieName)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(cookie, 10, 64)
}

func clearSessionCookie(c *gin.Context) {
	c.SetCookie(SessionCookieName, "", -1, "/", "", false, true)
}
