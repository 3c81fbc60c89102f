package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"

	"github.com/kendall-kelly/makanika-api/models"
	"github.com/kendall-kelly/makanika-api/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PhotoService attaches vehicle photos to jobs
type PhotoService struct {
	db     *gorm.DB
	jobs   *JobService
	images ImageService
	log    *zap.Logger
}

// NewPhotoService creates a photo service. A nil images disables uploads and listings.
func NewPhotoService(db *gorm.DB, jobs *JobService, images ImageService, log *zap.Logger) *PhotoService {
	return &PhotoService{db: db, jobs: jobs, images: images, log: log}
}

func photoStorageDisabled() *Error {
	return &Error{Kind: KindUnavailable, Code: "PHOTO_STORAGE_DISABLED", Message: "Photo storage is not configured"}
}

// Enabled reports whether a storage backend is configured
func (p *PhotoService) Enabled() bool {
	return p != nil && p.images != nil
}

// UploadJobPhoto stores a photo for a job the actor may see and records it
func (p *PhotoService) UploadJobPhoto(ctx context.Context, jobID uint, fileHeader *multipart.FileHeader, actor models.Identity) (*models.JobPhoto, error) {
	if !actor.Can(models.PermUploadPhotos) {
		return nil, forbidden("Only admin and mechanics can upload photos")
	}
	if !p.Enabled() {
		return nil, photoStorageDisabled()
	}
	if _, err := p.jobs.GetJob(ctx, jobID, actor); err != nil {
		return nil, err
	}

	key, err := p.images.UploadImage(ctx, fmt.Sprintf("jobs/%d", jobID), fileHeader)
	if err != nil {
		var fileErr *utils.FileUploadError
		if errors.As(err, &fileErr) {
			return nil, invalid(fileErr.Code, "%s", fileErr.Message)
		}
		return nil, err
	}

	photo := models.JobPhoto{JobID: jobID, S3Key: key, UploadedByID: actor.UserID}
	if err := p.db.WithContext(ctx).Omit(clause.Associations).Create(&photo).Error; err != nil {
		if delErr := p.images.DeleteImage(ctx, key); delErr != nil {
			p.log.Warn("failed to remove orphaned photo", zap.String("key", key), zap.Error(delErr))
		}
		return nil, fmt.Errorf("record photo: %w", err)
	}

	if photo.URL, err = p.images.GetImageURL(ctx, key); err != nil {
		p.log.Warn("failed to presign photo URL", zap.String("key", key), zap.Error(err))
	}
	p.log.Info("job photo uploaded", zap.Uint("job_id", jobID), zap.String("key", key))
	return &photo, nil
}

// ListJobPhotos returns a visible job's photos with presigned URLs, oldest first
func (p *PhotoService) ListJobPhotos(ctx context.Context, jobID uint, requester models.Identity) ([]models.JobPhoto, error) {
	if !p.Enabled() {
		return nil, photoStorageDisabled()
	}
	if _, err := p.jobs.GetJob(ctx, jobID, requester); err != nil {
		return nil, err
	}

	photos := []models.JobPhoto{}
	err := p.db.WithContext(ctx).Where("job_id = ?", jobID).Order("created_at").Order("id").Find(&photos).Error
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}

	for i := range photos {
		url, err := p.images.GetImageURL(ctx, photos[i].S3Key)
		if err != nil {
			return nil, err
		}
		photos[i].URL = url
	}
	return photos, nil
}

// DeleteJobPhoto removes a photo from a job the actor may see
func (p *PhotoService) DeleteJobPhoto(ctx context.Context, jobID, photoID uint, actor models.Identity) error {
	if !actor.Can(models.PermUploadPhotos) {
		return forbidden("Only admin and mechanics can delete photos")
	}
	if !p.Enabled() {
		return photoStorageDisabled()
	}
	if _, err := p.jobs.GetJob(ctx, jobID, actor); err != nil {
		return err
	}

	var photo models.JobPhoto
	db := p.db.WithContext(ctx)
	if err := db.Where("id = ? AND job_id = ?", photoID, jobID).First(&photo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("PHOTO_NOT_FOUND", "Photo not found")
		}
		return fmt.Errorf("get photo: %w", err)
	}

	if err := db.Delete(&photo).Error; err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	if err := p.images.DeleteImage(ctx, photo.S3Key); err != nil {
		p.log.Warn("failed to delete photo object", zap.String("key", photo.S3Key), zap.Error(err))
	}
	return nil
}
