// Package service contains the business logic layer.
package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/oklog/ulid/v2"

	appconfig "github.com/faceforge/faceforge-api/internal/config"
	"github.com/faceforge/faceforge-api/internal/imageio"
)

// StorageService handles object storage (S3-compatible). Swap results land
// under results/, staged provider inputs under staging/, template assets
// under templates/.
type StorageService struct {
	client    *s3.Client
	bucket    string
	publicURL string
	enabled   bool
	logger    *slog.Logger
}

// NewStorageService creates a new storage service.
func NewStorageService(cfg *appconfig.Config, logger *slog.Logger) (*StorageService, error) {
	if !cfg.StorageEnabled {
		logger.Info("storage service disabled - no bucket configured")
		return &StorageService{enabled: false, logger: logger}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.StorageRegion),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.StorageAccessKey,
			cfg.StorageSecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Custom endpoint for S3-compatible storage (Tigris, MinIO, etc.)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.StorageEndpoint)
		o.UsePathStyle = true
	})

	logger.Info("storage service initialized",
		"bucket", cfg.StorageBucket,
		"endpoint", cfg.StorageEndpoint,
	)

	return &StorageService{
		client:    client,
		bucket:    cfg.StorageBucket,
		publicURL: strings.TrimSuffix(cfg.StoragePublicURL, "/"),
		enabled:   true,
		logger:    logger,
	}, nil
}

// IsEnabled returns whether storage is configured and available.
func (s *StorageService) IsEnabled() bool {
	return s.enabled
}

// PublicURL returns the public URL for a stored key.
func (s *StorageService) PublicURL(key string) string {
	return s.publicURL + "/" + key
}

// putPublic uploads bytes under key with a public-read ACL and returns the
// public URL.
func (s *StorageService) putPublic(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if !s.enabled {
		return "", fmt.Errorf("storage is not configured")
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		ACL:         "public-read",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return s.PublicURL(key), nil
}

// UploadSwapResult stores a completed swap's result image and returns its
// public URL.
func (s *StorageService) UploadSwapResult(ctx context.Context, swapID, resultDataURL string) (string, error) {
	mime, data, err := imageio.DecodeDataURL(resultDataURL)
	if err != nil {
		return "", fmt.Errorf("failed to decode result: %w", err)
	}
	key := fmt.Sprintf("results/%s.%s", swapID, imageio.MimeSubtype(mime))
	return s.putPublic(ctx, key, mime, data)
}

// StagePublicImage publishes inline image bytes so URL-based providers can
// fetch them. Implements provider.ImageStager.
func (s *StorageService) StagePublicImage(ctx context.Context, dataURL string) (string, error) {
	mime, data, err := imageio.DecodeDataURL(dataURL)
	if err != nil {
		return "", fmt.Errorf("failed to decode staged image: %w", err)
	}
	key := fmt.Sprintf("staging/%s.%s", ulid.Make().String(), imageio.MimeSubtype(mime))
	return s.putPublic(ctx, key, mime, data)
}

// UploadTemplateAsset stores a template image and returns its public URL.
func (s *StorageService) UploadTemplateAsset(ctx context.Context, templateID, dataURL string) (string, error) {
	mime, data, err := imageio.DecodeDataURL(dataURL)
	if err != nil {
		return "", fmt.Errorf("failed to decode template asset: %w", err)
	}
	key := fmt.Sprintf("templates/%s/%s.%s", templateID, ulid.Make().String(), imageio.MimeSubtype(mime))
	return s.putPublic(ctx, key, mime, data)
}

// DeleteTemplateAssets removes every stored blob for a template. Used by
// hard deletes.
func (s *StorageService) DeleteTemplateAssets(ctx context.Context, templateID string) error {
	if !s.enabled {
		return nil
	}
	prefix := fmt.Sprintf("templates/%s/", templateID)

	list, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return fmt.Errorf("failed to list template assets: %w", err)
	}

	for _, obj := range list.Contents {
		if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    obj.Key,
		}); err != nil {
			return fmt.Errorf("failed to delete %s: %w", aws.ToString(obj.Key), err)
		}
	}
	return nil
}
