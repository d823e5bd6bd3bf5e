package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/inklutec-dev/InkluDocs/internal/models"
	"github.com/inklutec-dev/InkluDocs/internal/services"

	"github.com/gin-gonic/gin"
)

type ProjectManager interface {
	CreateFromUpload(ctx context.Context, userID uint, filename string, data []byte) (*models.Project, error)
	List(ctx context.Context, userID uint) ([]models.Project, error)
	Get(ctx context.Context, userID uint, projectID uint) (*models.Project, []models.Image, error)
	Status(ctx context.Context, userID uint, projectID uint) (*models.Project, error)
	Delete(ctx context.Context, userID uint, projectID uint) error
}

type GenerateStarter interface {
	Start(ctx context.Context, userID uint, projectID uint) error
}

type Exporter interface {
	Export(ctx context.Context, userID uint, projectID uint) (string, string, error)
}

type ReportBuilder interface {
	BuildReport(ctx context.Context, userID uint, projectID uint) ([]byte, string, error)
}

type BundleBuilder interface {
	BuildZip(ctx context.Context, userID uint, projectID uint) ([]byte, string, error)
}

type ProjectsController struct {
	projects  ProjectManager
	generator GenerateStarter
	exporter  Exporter
	reports   ReportBuilder
	bundles   BundleBuilder
}

type ProjectsResponse struct {
	Projects []models.Project `json:"projects"`
}

type ProjectDetailResponse struct {
	Project *models.Project `json:"project"`
	Images  []models.Image  `json:"images"`
}

func NewProjectsController(projects ProjectManager, generator GenerateStarter, exporter Exporter, reports ReportBuilder, bundles BundleBuilder) (*ProjectsController, error) {
	if projects == nil {
		return nil, errors.New("project service is nil")
	}
	if generator == nil {
		return nil, errors.New("generate service is nil")
	}
	if exporter == nil {
		return nil, errors.New("export service is nil")
	}
	if reports == nil {
		return nil, errors.New("report service is nil")
	}
	if bundles == nil {
		return nil, errors.New("bundle service is nil")
	}

	return &ProjectsController{
		projects:  projects,
		generator: generator,
		exporter:  exporter,
		reports:   reports,
		bundles:   bundles,
	}, nil
}

func (c *ProjectsController) RegisterRoutes(router *gin.Engine, auth gin.HandlerFunc) error {
	if c == nil {
		return errors.New("projects controller is nil")
	}
	if router == nil {
		return errors.New("router is nil")
	}
	if auth == nil {
		return errors.New("auth middleware is nil")
	}

	router.POST("/api/upload", auth, c.upload)
	router.GET("/api/projects", auth, c.list)
	router.GET("/api/projects/:id", auth, c.get)
	router.GET("/api/projects/:id/status", auth, c.status)
	router.DELETE("/api/projects/:id", auth, c.delete)
	router.POST("/api/projects/:id/generate", auth, c.generate)
	router.POST("/api/projects/:id/export", auth, c.export)
	router.GET("/api/projects/:id/report", auth, c.report)
	router.GET("/api/projects/:id/images.zip", auth, c.imagesZip)
	return nil
}

func (c *ProjectsController) upload(ctx *gin.Context) {
	session, ok := currentSession(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Nicht angemeldet"})
		return
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "Keine Datei hochgeladen"})
		return
	}

	src, err := file.Open()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Upload fehlgeschlagen"})
		return
	}
	// One byte past the limit is enough to detect oversized uploads without
	// buffering arbitrarily much.
	data, readErr := io.ReadAll(io.LimitReader(src, services.MaxUploadSize+1))
	closeErr := src.Close()
	if readErr != nil {
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Upload fehlgeschlagen"})
		return
	}
	if closeErr != nil {
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Upload fehlgeschlagen"})
		return
	}

	project, err := c.projects.CreateFromUpload(ctx.Request.Context(), session.UserID, file.Filename, data)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotPDF):
			ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "Nur PDF-Dateien erlaubt"})
		case errors.Is(err, services.ErrFileTooLarge):
			ctx.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "Datei zu gross. Maximum: 50 MB"})
		case errors.Is(err, services.ErrExtractFailed):
			ctx.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "PDF konnte nicht verarbeitet werden"})
		default:
			ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Upload fehlgeschlagen"})
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"ok":           true,
		"project_id":   project.ID,
		"total_images": project.TotalImages,
		"status":       project.Status,
	})
}

func (c *ProjectsController) list(ctx *gin.Context) {
	session, ok := currentSession(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Nicht angemeldet"})
		return
	}

	projects, err := c.projects.List(ctx.Request.Context(), session.UserID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Projekte konnten nicht geladen werden"})
		return
	}

	ctx.JSON(http.StatusOK, ProjectsResponse{Projects: projects})
}

func (c *ProjectsController) get(ctx *gin.Context) {
	session, ok := currentSession(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Nicht angemeldet"})
		return
	}

	projectID, err := parseIDParam(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "Ungueltige Projekt-ID"})
		return
	}

	project, images, err := c.projects.Get(ctx.Request.Context(), session.UserID, projectID)
	if err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{Error: "Projekt nicht gefunden"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Projekt konnte nicht geladen werden"})
		return
	}

	ctx.JSON(http.StatusOK, ProjectDetailResponse{Project: project, Images: images})
}

func (c *ProjectsController) status(ctx *gin.Context) {
	session, ok := currentSession(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Nicht angemeldet"})
		return
	}

	projectID, err := parseIDParam(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "Ungueltige Projekt-ID"})
		return
	}

	project, err := c.projects.Status(ctx.Request.Context(), session.UserID, projectID)
	if err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{Error: "Projekt nicht gefunden"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Status konnte nicht geladen werden"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status":           project.Status,
		"total_images":     project.TotalImages,
		"processed_images": project.ProcessedImages,
	})
}

func (c *ProjectsController) delete(ctx *gin.Context) {
	session, ok := currentSession(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Nicht angemeldet"})
		return
	}

	projectID, err := parseIDParam(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "Ungueltige Projekt-ID"})
		return
	}

	err = c.projects.Delete(ctx.Request.Context(), session.UserID, projectID)
	if err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{Error: "Projekt nicht gefunden"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Projekt konnte nicht geloescht werden"})
		return
	}

	ctx.JSON(http.StatusOK, MessageResponse{OK: true, Message: "Projekt wurde geloescht"})
}

func (c *ProjectsController) generate(ctx *gin.Context) {
	session, ok := currentSession(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Nicht angemeldet"})
		return
	}

	projectID, err := parseIDParam(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "Ungueltige Projekt-ID"})
		return
	}

	err = c.generator.Start(ctx.Request.Context(), session.UserID, projectID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProjectNotFound):
			ctx.JSON(http.StatusNotFound, ErrorResponse{Error: "Projekt nicht gefunden"})
		case errors.Is(err, services.ErrAlreadyProcessing):
			ctx.JSON(http.StatusConflict, ErrorResponse{Error: "Verarbeitung laeuft bereits"})
		default:
			ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Generierung konnte nicht gestartet werden"})
		}
		return
	}

	ctx.JSON(http.StatusOK, MessageResponse{OK: true, Message: "Alt-Text-Generierung gestartet"})
}

func (c *ProjectsController) export(ctx *gin.Context) {
	session, ok := currentSession(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Nicht angemeldet"})
		return
	}

	projectID, err := parseIDParam(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "Ungueltige Projekt-ID"})
		return
	}

	path, downloadName, err := c.exporter.Export(ctx.Request.Context(), session.UserID, projectID)
	if err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{Error: "Projekt nicht gefunden"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Export fehlgeschlagen"})
		return
	}

	ctx.FileAttachment(path, downloadName)
}

func (c *ProjectsController) report(ctx *gin.Context) {
	session, ok := currentSession(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Nicht angemeldet"})
		return
	}

	projectID, err := parseIDParam(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "Ungueltige Projekt-ID"})
		return
	}

	data, name, err := c.reports.BuildReport(ctx.Request.Context(), session.UserID, projectID)
	if err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{Error: "Projekt nicht gefunden"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Report konnte nicht erstellt werden"})
		return
	}

	ctx.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	ctx.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (c *ProjectsController) imagesZip(ctx *gin.Context) {
	session, ok := currentSession(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Nicht angemeldet"})
		return
	}

	projectID, err := parseIDParam(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "Ungueltige Projekt-ID"})
		return
	}

	data, name, err := c.bundles.BuildZip(ctx.Request.Context(), session.UserID, projectID)
	if err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{Error: "Projekt nicht gefunden"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Download konnte nicht erstellt werden"})
		return
	}

	ctx.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	ctx.Data(http.StatusOK, "application/zip", data)
}
