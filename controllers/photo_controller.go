package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/makanika-api/services"
	"go.uber.org/zap"
)

// PhotoController serves vehicle photos attached to jobs
type PhotoController struct {
	photos *services.PhotoService
	log    *zap.Logger
}

func NewPhotoController(photos *services.PhotoService, log *zap.Logger) *PhotoController {
	return &PhotoController{photos: photos, log: log}
}

// UploadPhoto handles POST /api/v1/jobs/:id/photos - multipart form with a "file" field
func (p *PhotoController) UploadPhoto(c *gin.Context) {
	me, ok := caller(c)
	if !ok {
		return
	}
	jobID, ok := pathID(c, "id")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "FILE_REQUIRED", "A file field named 'file' is required")
		return
	}

	photo, err := p.photos.UploadJobPhoto(c.Request.Context(), jobID, fileHeader, me)
	if err != nil {
		handleError(c, p.log, err)
		return
	}

	respondSuccess(c, http.StatusCreated, photo)
}

// ListPhotos handles GET /api/v1/jobs/:id/photos
func (p *PhotoController) ListPhotos(c *gin.Context) {
	me, ok := caller(c)
	if !ok {
		return
	}
	jobID, ok := pathID(c, "id")
	if !ok {
		return
	}

	photos, err := p.photos.ListJobPhotos(c.Request.Context(), jobID, me)
	if err != nil {
		handleError(c, p.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, photos)
}

// DeletePhoto handles DELETE /api/v1/jobs/:id/photos/:photoId
func (p *PhotoController) DeletePhoto(c *gin.Context) {
	me, ok := caller(c)
	if !ok {
		return
	}
	jobID, ok := pathID(c, "id")
	if !ok {
		return
	}
	photoID, ok := pathID(c, "photoId")
	if !ok {
		return
	}

	if err := p.photos.DeleteJobPhoto(c.Request.Context(), jobID, photoID, me); err != nil {
		handleError(c, p.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"message": "Photo deleted successfully"})
}
