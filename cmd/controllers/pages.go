package controllers

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

// PagesController serves the static frontend. The editor page is only
// reachable with a valid session; everyone else lands on the login page.
type PagesController struct {
	frontendDir string
	tokens      SessionVerifier
}

func NewPagesController(frontendDir string, tokens SessionVerifier) (*PagesController, error) {
	if frontendDir == "" {
		return nil, errors.New("frontend dir is empty")
	}
	if tokens == nil {
		return nil, errors.New("token service is nil")
	}

	return &PagesController{frontendDir: frontendDir, tokens: tokens}, nil
}

func (c *PagesController) RegisterRoutes(router *gin.Engine) error {
	if c == nil {
		return errors.New("pages controller is nil")
	}
	if router == nil {
		return errors.New("router is nil")
	}

	router.Static("/static", filepath.Join(c.frontendDir, "static"))
	router.GET("/", c.page("index.html"))
	router.GET("/register", c.page("register.html"))
	router.GET("/forgot", c.page("forgot.html"))
	router.GET("/reset", c.page("reset.html"))
	router.GET("/app", c.app)
	return nil
}

func (c *PagesController) page(name string) gin.HandlerFunc {
	path := filepath.Join(c.frontendDir, name)
	return func(ctx *gin.Context) {
		ctx.File(path)
	}
}

func (c *PagesController) app(ctx *gin.Context) {
	raw, err := ctx.Cookie(sessionCookieName)
	if err != nil || raw == "" {
		ctx.Redirect(http.StatusFound, "/")
		return
	}
	if _, err := c.tokens.Verify(raw); err != nil {
		ctx.Redirect(http.StatusFound, "/")
		return
	}

	ctx.File(filepath.Join(c.frontendDir, "app.html"))
}
