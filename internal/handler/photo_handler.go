package handler

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ladder-inspection-api/internal/dto"
	appErrors "github.com/noah-isme/ladder-inspection-api/pkg/errors"
	"github.com/noah-isme/ladder-inspection-api/pkg/response"
)

// PhotoFormField is the multipart field carrying the uploaded image.
const PhotoFormField = "photo"

type photoService interface {
	Upload(ctx context.Context, r io.Reader, actorID string) (*dto.PhotoUploadResponse, error)
	ItemPhotoLink(ctx context.Context, inspectionID, itemID string) (*dto.PhotoUploadResponse, error)
	Open(token string) (*os.File, string, error)
}

// PhotoHandler accepts item photos and serves them through signed links.
type PhotoHandler struct {
	service photoService
}

// NewPhotoHandler constructs the handler.
func NewPhotoHandler(svc photoService) *PhotoHandler {
	return &PhotoHandler{service: svc}
}

// Upload godoc
// @Summary Upload item photo
// @Description Stores an image and returns the path to reference as photo_path when recording the inspection
// @Tags Photos
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param photo formData file true "Image"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /photos [post]
func (h *PhotoHandler) Upload(c *gin.Context) {
	header, err := c.FormFile(PhotoFormField)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "photo file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "photo file is unreadable"))
		return
	}
	defer file.Close()

	res, err := h.service.Upload(c.Request.Context(), file, auditMeta(c).ActorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// ItemPhoto godoc
// @Summary Signed link for an item photo
// @Tags Photos
// @Produce json
// @Security BearerAuth
// @Param id path string true "Inspection ID"
// @Param itemId path string true "Item ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /inspections/{id}/items/{itemId}/photo [get]
func (h *PhotoHandler) ItemPhoto(c *gin.Context) {
	res, err := h.service.ItemPhotoLink(c.Request.Context(), c.Param("id"), c.Param("itemId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Download godoc
// @Summary Download photo
// @Description The token comes from a signed link; no bearer token is needed
// @Tags Photos
// @Produce image/jpeg
// @Produce image/png
// @Param token query string true "Signed token"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /photos/download [get]
func (h *PhotoHandler) Download(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "download token is required"))
		return
	}

	file, contentType, err := h.service.Open(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read photo"))
		return
	}
	c.Header("Cache-Control", "private, max-age=300")
	c.DataFromReader(http.StatusOK, info.Size(), contentType, file, nil)
}
