package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/Eduard-Golovash/foodgram-project-react/config"
	"github.com/Eduard-Golovash/foodgram-project-react/internal/apperror"
)

// ImageService stores recipe images. The rest of the system only ever sees
// the opaque reference it returns.
type ImageService struct {
	s3Config *config.S3Config
}

// NewImageService creates an ImageService. A nil s3Config disables uploads;
// references are then stored as submitted.
func NewImageService(s3Config *config.S3Config) *ImageService {
	return &ImageService{s3Config: s3Config}
}

// StoreRecipeImage accepts either an opaque reference (returned untouched)
// or a base64 data URL, which is decoded and uploaded to the bucket.
func (s *ImageService) StoreRecipeImage(ctx context.Context, image string) (string, error) {
	if !strings.HasPrefix(image, "data:") {
		return image, nil
	}

	header, payload, found := strings.Cut(image, ",")
	if !found {
		return "", apperror.Validation("image", "malformed image data URL")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", apperror.Validation("image", "invalid base64 image data")
	}

	ext, contentType := "png", "image/png"
	if strings.Contains(header, "image/jpeg") {
		ext, contentType = "jpg", "image/jpeg"
	}

	if s.s3Config == nil {
		// No bucket configured; keep the submitted reference as-is.
		return image, nil
	}

	fileName := fmt.Sprintf("recipe-images/%s.%s", uuid.New().String(), ext)
	_, err = s.s3Config.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Config.BucketName),
		Key:         aws.String(fileName),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	publicURL := fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.s3Config.BucketName, fileName)
	log.Printf("[ImageService] Uploaded recipe image to %s", publicURL)
	return publicURL, nil
}
