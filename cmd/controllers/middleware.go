package controllers

import (
	"net/http"

	"github.com/inklutec-dev/InkluDocs/internal/services"

	"github.com/gin-gonic/gin"
)

const (
	sessionCookieName = "token"
	sessionContextKey = "session"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type SessionVerifier interface {
	Verify(token string) (services.Session, error)
}

// AuthRequired rejects requests without a valid session cookie and stores
// the session on the context for handlers.
func AuthRequired(tokens SessionVerifier) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authenticate(ctx, tokens)
	}
}

// AdminRequired additionally rejects sessions without the admin flag.
func AdminRequired(tokens SessionVerifier) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		session, ok := authenticate(ctx, tokens)
		if !ok {
			return
		}
		if !session.IsAdmin {
			ctx.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: "Nur fuer Administratoren"})
		}
	}
}

func authenticate(ctx *gin.Context, tokens SessionVerifier) (services.Session, bool) {
	raw, err := ctx.Cookie(sessionCookieName)
	if err != nil || raw == "" {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Nicht angemeldet"})
		return services.Session{}, false
	}

	session, err := tokens.Verify(raw)
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Token ungueltig"})
		return services.Session{}, false
	}

	ctx.Set(sessionContextKey, session)
	return session, true
}

func currentSession(ctx *gin.Context) (services.Session, bool) {
	value, ok := ctx.Get(sessionContextKey)
	if !ok {
		return services.Session{}, false
	}
	session, ok := value.(services.Session)
	return session, ok
}
