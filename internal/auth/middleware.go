package auth

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

const contextKey = "induction.session"

// RequireSession redirects requests without a live session to /login.
func RequireSession(codec *Codec, store *SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := store.Authenticate(codec, c.Request)
		if err != nil {
			logStoreFailure(err)
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Set(contextKey, s)
		c.Next()
	}
}

// RequireAPISession answers 401 JSON for requests without a live session.
func RequireAPISession(codec *Codec, store *SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := store.Authenticate(codec, c.Request)
		if err != nil {
			logStoreFailure(err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Set(contextKey, s)
		c.Next()
	}
}

// logStoreFailure logs lookups that failed for reasons other than a
// missing or ended session.
func logStoreFailure(err error) {
	if !errors.Is(err, ErrNoSession) {
		log.Printf("auth: %v", err)
	}
}

// Current returns the session placed in the context by the middleware.
func Current(c *gin.Context) (Session, bool) {
	v, ok := c.Get(contextKey)
	if !ok {
		return Session{}, false
	}
	s, ok := v.(Session)
	return s, ok
}
