package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"path"

	"github.com/kendall-kelly/makanika-api/utils"
	"github.com/segmentio/ksuid"
)

// ImageService handles image upload, retrieval and deletion
type ImageService interface {
	// UploadImage validates and stores an image under prefix, returning its storage key
	UploadImage(ctx context.Context, prefix string, fileHeader *multipart.FileHeader) (string, error)

	// GetImageURL generates a URL for accessing an uploaded image
	GetImageURL(ctx context.Context, imageKey string) (string, error)

	// DeleteImage removes an image from storage
	DeleteImage(ctx context.Context, imageKey string) error
}

// S3ImageService implements ImageService using AWS S3 for storage
type S3ImageService struct {
	s3Service S3Interface
}

// NewImageService creates an image service backed by s3Service
func NewImageService(s3Service S3Interface) *S3ImageService {
	return &S3ImageService{s3Service: s3Service}
}

// ImageKey builds a collision-free key: <prefix>/<ksuid><ext>
func ImageKey(prefix, filename string) string {
	return path.Join(prefix, ksuid.New().String()+utils.ImageExtension(filename))
}

// UploadImage validates and uploads an image file to S3
func (s *S3ImageService) UploadImage(ctx context.Context, prefix string, fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return "", err
	}

	key := ImageKey(prefix, fileHeader.Filename)
	if err := s.s3Service.UploadFile(ctx, key, utils.ImageContentType(fileHeader.Filename), fileHeader); err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	return key, nil
}

// GetImageURL generates a presigned URL for accessing an image
func (s *S3ImageService) GetImageURL(ctx context.Context, imageKey string) (string, error) {
	if imageKey == "" {
		return "", nil
	}

	url, err := s.s3Service.GetPresignedURL(ctx, imageKey)
	if err != nil {
		return "", fmt.Errorf("failed to generate image URL: %w", err)
	}

	return url, nil
}

// DeleteImage deletes an image from S3
func (s *S3ImageService) DeleteImage(ctx context.Context, imageKey string) error {
	if imageKey == "" {
		return nil
	}

	if err := s.s3Service.DeleteFile(ctx, imageKey); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}

	return nil
}
