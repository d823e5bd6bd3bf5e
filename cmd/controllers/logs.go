package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/inklutec-dev/InkluDocs/internal/models"

	"github.com/gin-gonic/gin"
)

const defaultLogsLimit = 100

type LogProvider interface {
	GetLogs(ctx context.Context, limit int, eventID string) ([]models.AuditLog, error)
	TruncateLogs(ctx context.Context) (int, error)
}

type LogsController struct {
	service LogProvider
}

type DeleteLogsResponse struct {
	Deleted int `json:"deleted"`
}

func NewLogsController(service LogProvider) (*LogsController, error) {
	if service == nil {
		return nil, errors.New("log service is nil")
	}

	return &LogsController{service: service}, nil
}

func (c *LogsController) RegisterRoutes(router *gin.Engine, admin gin.HandlerFunc) error {
	if c == nil {
		return errors.New("logs controller is nil")
	}
	if router == nil {
		return errors.New("router is nil")
	}
	if admin == nil {
		return errors.New("admin middleware is nil")
	}

	router.GET("/api/admin/logs", admin, c.getLogs)
	router.DELETE("/api/admin/logs", admin, c.deleteLogs)
	return nil
}

func (c *LogsController) getLogs(ctx *gin.Context) {
	limit, err := parseLogsLimit(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "Ungueltiges Limit"})
		return
	}

	logs, err := c.service.GetLogs(ctx.Request.Context(), limit, ctx.Query("event_id"))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Logs konnten nicht geladen werden"})
		return
	}

	ctx.JSON(http.StatusOK, logs)
}

func (c *LogsController) deleteLogs(ctx *gin.Context) {
	deleted, err := c.service.TruncateLogs(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Logs konnten nicht geloescht werden"})
		return
	}

	ctx.JSON(http.StatusOK, DeleteLogsResponse{Deleted: deleted})
}

func parseLogsLimit(ctx *gin.Context) (int, error) {
	value := ctx.Query("limit")
	if value == "" {
		return defaultLogsLimit, nil
	}

	limit, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	if limit <= 0 {
		return 0, errors.New("limit must be positive")
	}

	return limit, nil
}
