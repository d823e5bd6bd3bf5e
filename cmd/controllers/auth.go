package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/inklutec-dev/InkluDocs/internal/models"
	"github.com/inklutec-dev/InkluDocs/internal/services"

	"github.com/gin-gonic/gin"
)

const sessionCookieMaxAge = int(24 * time.Hour / time.Second)

type UserManager interface {
	Register(ctx context.Context, email string, password string, displayName string) (*models.User, error)
	Authenticate(ctx context.Context, email string, password string) (*models.User, error)
	GetByID(ctx context.Context, userID uint) (*models.User, error)
	ChangePassword(ctx context.Context, userID uint, oldPassword string, newPassword string) error
	CreateResetToken(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token string, newPassword string) error
}

type TokenIssuer interface {
	Issue(userID uint, email string, isAdmin bool) (string, error)
}

type LoginGate interface {
	Allow(ip string) bool
	RecordFailure(ip string)
}

type AuthController struct {
	users   UserManager
	tokens  TokenIssuer
	limiter LoginGate
	baseURL string
}

type SessionResponse struct {
	OK          bool   `json:"ok"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	IsAdmin     bool   `json:"is_admin"`
}

type MessageResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

func NewAuthController(users UserManager, tokens TokenIssuer, limiter LoginGate, baseURL string) (*AuthController, error) {
	if users == nil {
		return nil, errors.New("user service is nil")
	}
	if tokens == nil {
		return nil, errors.New("token service is nil")
	}
	if limiter == nil {
		return nil, errors.New("login limiter is nil")
	}
	if baseURL == "" {
		return nil, errors.New("base url is empty")
	}

	return &AuthController{
		users:   users,
		tokens:  tokens,
		limiter: limiter,
		baseURL: baseURL,
	}, nil
}

func (c *AuthController) RegisterRoutes(router *gin.Engine, auth gin.HandlerFunc) error {
	if c == nil {
		return errors.New("auth controller is nil")
	}
	if router == nil {
		return errors.New("router is nil")
	}
	if auth == nil {
		return errors.New("auth middleware is nil")
	}

	router.POST("/api/login", c.login)
	router.POST("/api/register", c.register)
	router.POST("/api/logout", c.logout)
	router.GET("/api/me", auth, c.me)
	router.POST("/api/change-password", auth, c.changePassword)
	router.POST("/api/forgot-password", c.forgotPassword)
	router.POST("/api/reset-password", c.resetPassword)
	return nil
}

func (c *AuthController) login(ctx *gin.Context) {
	ip := ctx.ClientIP()
	if !c.limiter.Allow(ip) {
		ctx.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "Zu viele Anmeldeversuche. Bitte 5 Minuten warten."})
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "Ungueltige Anfrage"})
		return
	}

	user, err := c.users.Authenticate(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.limiter.RecordFailure(ip)
			ctx.JSON(http.StatusUnauthorized, ErrorResponse{Error: "E-Mail oder Passwort falsch"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Anmeldung fehlgeschlagen"})
		return
	}

	token, err := c.tokens.Issue(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Anmeldung fehlgeschlagen"})
		return
	}

	setSessionCookie(ctx, token)
	ctx.JSON(http.StatusOK, SessionResponse{
		OK:          true,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		IsAdmin:     user.IsAdmin,
	})
}

func (c *AuthController) register(ctx *gin.Context) {
	var req struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		DisplayName string `json:"display_name"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "Ungueltige Anfrage"})
		return
	}

	user, err := c.users.Register(ctx.Request.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidEmail):
			ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "Bitte eine gueltige E-Mail-Adresse eingeben"})
		case errors.Is(err, services.ErrWeakPassword):
			ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "Passwort muss mindestens 8 Zeichen lang sein"})
		case errors.Is(err, services.ErrEmptyDisplayName):
			ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "Bitte einen Namen eingeben"})
		case errors.Is(err, services.ErrEmailTaken):
			ctx.JSON(http.StatusConflict, ErrorResponse{Error: "Diese E-Mail-Adresse ist bereits registriert"})
		default:
			ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Registrierung fehlgeschlagen"})
		}
		return
	}

	token, err := c.tokens.Issue(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Registrierung fehlgeschlagen"})
		return
	}

	setSessionCookie(ctx, token)
	ctx.JSON(http.StatusOK, SessionResponse{
		OK:          true,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		IsAdmin:     user.IsAdmin,
	})
}

func (c *AuthController) logout(ctx *gin.Context) {
	clearSessionCookie(ctx)
	ctx.JSON(http.StatusOK, gin.H{"ok": true})
}

func (c *AuthController) me(ctx *gin.Context) {
	session, ok := currentSession(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Nicht angemeldet"})
		return
	}

	user, err := c.users.GetByID(ctx.Request.Context(), session.UserID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			ctx.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User nicht gefunden"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Anfrage fehlgeschlagen"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"ok": true,
		"user": gin.H{
			"id":           user.ID,
			"email":        user.Email,
			"display_name": user.DisplayName,
			"is_admin":     user.IsAdmin,
		},
	})
}

func (c *AuthController) changePassword(ctx *gin.Context) {
	session, ok := currentSession(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Nicht angemeldet"})
		return
	}

	var req struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "Ungueltige Anfrage"})
		return
	}

	err := c.users.ChangePassword(ctx.Request.Context(), session.UserID, req.OldPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrWeakPassword):
			ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "Neues Passwort muss mindestens 8 Zeichen lang sein"})
		case errors.Is(err, services.ErrInvalidCredentials):
			ctx.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Aktuelles Passwort ist falsch"})
		default:
			ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Passwortaenderung fehlgeschlagen"})
		}
		return
	}

	ctx.JSON(http.StatusOK, MessageResponse{OK: true, Message: "Passwort wurde geaendert"})
}

func (c *AuthController) forgotPassword(ctx *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "Ungueltige Anfrage"})
		return
	}

	token, err := c.users.CreateResetToken(ctx.Request.Context(), req.Email)
	if err != nil {
		// Never reveal whether the address exists.
		if errors.Is(err, services.ErrUserNotFound) {
			ctx.JSON(http.StatusOK, MessageResponse{OK: true, Message: "Falls ein Konto existiert, wird ein Reset-Link angezeigt."})
			return
		}
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Anfrage fehlgeschlagen"})
		return
	}

	// No mailer is configured, so the link is returned directly.
	ctx.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"message":   "Reset-Link wurde erstellt.",
		"reset_url": c.baseURL + "/reset?token=" + token,
		"hinweis":   "Da kein E-Mail-Versand konfiguriert ist, wird der Link hier direkt angezeigt. Als Admin koennen Sie auch Passwoerter direkt zuruecksetzen.",
	})
}

func (c *AuthController) resetPassword(ctx *gin.Context) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "Ungueltige Anfrage"})
		return
	}

	err := c.users.ResetPassword(ctx.Request.Context(), req.Token, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrWeakPassword):
			ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "Passwort muss mindestens 8 Zeichen lang sein"})
		case errors.Is(err, services.ErrInvalidResetToken):
			ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "Reset-Link ist ungueltig oder abgelaufen"})
		default:
			ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Anfrage fehlgeschlagen"})
		}
		return
	}

	ctx.JSON(http.StatusOK, MessageResponse{OK: true, Message: "Passwort wurde zurueckgesetzt. Sie koennen sich jetzt anmelden."})
}

func setSessionCookie(ctx *gin.Context, token string) {
	ctx.SetSameSite(http.SameSiteStrictMode)
	ctx.SetCookie(sessionCookieName, token, sessionCookieMaxAge, "/", "", false, true)
}

func clearSessionCookie(ctx *gin.Context) {
	ctx.SetCookie(sessionCookieName, "", -1, "/", "", false, true)
}
