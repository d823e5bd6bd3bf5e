package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/inklutec-dev/InkluDocs/internal/models"
	"github.com/inklutec-dev/InkluDocs/internal/services"

	"github.com/gin-gonic/gin"
)

type UserDirectory interface {
	ListUsers(ctx context.Context) ([]services.UserSummary, error)
	ToggleActive(ctx context.Context, actorID uint, targetID uint) (bool, error)
	AdminResetPassword(ctx context.Context, targetID uint, newPassword string) (*models.User, error)
	DeleteUser(ctx context.Context, actorID uint, targetID uint) (*models.User, error)
}

type AdminController struct {
	users UserDirectory
}

type UsersResponse struct {
	Users []services.UserSummary `json:"users"`
}

func NewAdminController(users UserDirectory) (*AdminController, error) {
	if users == nil {
		return nil, errors.New("user service is nil")
	}

	return &AdminController{users: users}, nil
}

func (c *AdminController) RegisterRoutes(router *gin.Engine, admin gin.HandlerFunc) error {
	if c == nil {
		return errors.New("admin controller is nil")
	}
	if router == nil {
		return errors.New("router is nil")
	}
	if admin == nil {
		return errors.New("admin middleware is nil")
	}

	router.GET("/api/admin/users", admin, c.listUsers)
	router.POST("/api/admin/users/:id/toggle-active", admin, c.toggleActive)
	router.POST("/api/admin/users/:id/reset-password", admin, c.resetPassword)
	router.DELETE("/api/admin/users/:id", admin, c.deleteUser)
	return nil
}

func (c *AdminController) listUsers(ctx *gin.Context) {
	users, err := c.users.ListUsers(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Benutzerliste konnte nicht geladen werden"})
		return
	}

	ctx.JSON(http.StatusOK, UsersResponse{Users: users})
}

func (c *AdminController) toggleActive(ctx *gin.Context) {
	session, ok := currentSession(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Nicht angemeldet"})
		return
	}

	targetID, err := parseIDParam(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "Ungueltige User-ID"})
		return
	}

	active, err := c.users.ToggleActive(ctx.Request.Context(), session.UserID, targetID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSelfAction):
			ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "Sie koennen sich nicht selbst deaktivieren"})
		case errors.Is(err, services.ErrUserNotFound):
			ctx.JSON(http.StatusNotFound, ErrorResponse{Error: "User nicht gefunden"})
		default:
			ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Aktion fehlgeschlagen"})
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"ok": true, "is_active": active})
}

func (c *AdminController) resetPassword(ctx *gin.Context) {
	targetID, err := parseIDParam(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "Ungueltige User-ID"})
		return
	}

	var req struct {
		NewPassword string `json:"new_password"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "Ungueltige Anfrage"})
		return
	}

	target, err := c.users.AdminResetPassword(ctx.Request.Context(), targetID, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrWeakPassword):
			ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "Passwort muss mindestens 8 Zeichen lang sein"})
		case errors.Is(err, services.ErrUserNotFound):
			ctx.JSON(http.StatusNotFound, ErrorResponse{Error: "User nicht gefunden"})
		default:
			ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Aktion fehlgeschlagen"})
		}
		return
	}

	ctx.JSON(http.StatusOK, MessageResponse{
		OK:      true,
		Message: fmt.Sprintf("Passwort fuer %s wurde zurueckgesetzt", target.Email),
	})
}

func (c *AdminController) deleteUser(ctx *gin.Context) {
	session, ok := currentSession(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Nicht angemeldet"})
		return
	}

	targetID, err := parseIDParam(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "Ungueltige User-ID"})
		return
	}

	target, err := c.users.DeleteUser(ctx.Request.Context(), session.UserID, targetID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSelfAction):
			ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "Sie koennen sich nicht selbst loeschen"})
		case errors.Is(err, services.ErrUserNotFound):
			ctx.JSON(http.StatusNotFound, ErrorResponse{Error: "User nicht gefunden"})
		default:
			ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Aktion fehlgeschlagen"})
		}
		return
	}

	ctx.JSON(http.StatusOK, MessageResponse{
		OK:      true,
		Message: fmt.Sprintf("User %s und alle Daten wurden geloescht", target.Email),
	})
}

func parseIDParam(ctx *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
