package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vibely-app/backend/internal/media"
)

// MediaHandler proxies image uploads to the external image host
type MediaHandler struct {
	uploader media.Uploader
}

// NewMediaHandler creates a new MediaHandler
func NewMediaHandler(uploader media.Uploader) *MediaHandler {
	return &MediaHandler{uploader: uploader}
}

// RegisterMediaRoutes registers upload routes
func (h *MediaHandler) RegisterMediaRoutes(g *echo.Group) {
	g.POST("/upload", h.Upload)
}

// Upload accepts a multipart image and returns its public URL
func (h *MediaHandler) Upload(c echo.Context) error {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing image file")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot read image file")
	}
	defer file.Close()

	url, err := h.uploader.Upload(c.Request().Context(), fileHeader.Filename, file)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"url": url})
}
