package controllers

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/inklutec-dev/InkluDocs/internal/models"
	"github.com/inklutec-dev/InkluDocs/internal/services"

	"github.com/gin-gonic/gin"
)

type ImageManager interface {
	GetImage(ctx context.Context, userID uint, imageID uint) (*models.Image, error)
	UpdateAltText(ctx context.Context, userID uint, imageID uint, altText string) error
}

type ImagesController struct {
	images ImageManager
}

func NewImagesController(images ImageManager) (*ImagesController, error) {
	if images == nil {
		return nil, errors.New("image service is nil")
	}

	return &ImagesController{images: images}, nil
}

func (c *ImagesController) RegisterRoutes(router *gin.Engine, auth gin.HandlerFunc) error {
	if c == nil {
		return errors.New("images controller is nil")
	}
	if router == nil {
		return errors.New("router is nil")
	}
	if auth == nil {
		return errors.New("auth middleware is nil")
	}

	router.GET("/api/images/:id/file", auth, c.file)
	router.POST("/api/images/:id/alt-text", auth, c.updateAltText)
	return nil
}

func (c *ImagesController) file(ctx *gin.Context) {
	session, ok := currentSession(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Nicht angemeldet"})
		return
	}

	imageID, err := parseIDParam(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "Ungueltige Bild-ID"})
		return
	}

	img, err := c.images.GetImage(ctx.Request.Context(), session.UserID, imageID)
	if err != nil {
		if errors.Is(err, services.ErrImageNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{Error: "Bild nicht gefunden"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Bild konnte nicht geladen werden"})
		return
	}

	if _, err := os.Stat(img.ImagePath); err != nil {
		ctx.JSON(http.StatusNotFound, ErrorResponse{Error: "Bild nicht gefunden"})
		return
	}

	ctx.File(img.ImagePath)
}

func (c *ImagesController) updateAltText(ctx *gin.Context) {
	session, ok := currentSession(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Nicht angemeldet"})
		return
	}

	imageID, err := parseIDParam(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "Ungueltige Bild-ID"})
		return
	}

	var req struct {
		AltText string `json:"alt_text"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "Ungueltige Anfrage"})
		return
	}

	err = c.images.UpdateAltText(ctx.Request.Context(), session.UserID, imageID, req.AltText)
	if err != nil {
		if errors.Is(err, services.ErrImageNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{Error: "Bild nicht gefunden"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Alt-Text konnte nicht gespeichert werden"})
		return
	}

	ctx.JSON(http.StatusOK, MessageResponse{OK: true, Message: "Alt-Text wurde gespeichert"})
}
