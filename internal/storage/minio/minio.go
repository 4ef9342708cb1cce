package minio

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	// VideoBucket holds normalized videos archived after a completed run.
	VideoBucket = "normalized-videos"
	// ThumbnailBucket holds poster frames.
	ThumbnailBucket = "thumbnails"
)

type Client struct {
	client *minio.Client
}

// NewClient creates a new Minio client and ensures buckets exist
func NewClient(endpoint, accessKey, secretKey string, useSSL bool) (*Client, error) {
	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	client := &Client{client: minioClient}

	buckets := []string{VideoBucket, ThumbnailBucket}
	for _, bucketName := range buckets {
		if err := client.ensureBucketExists(context.Background(), bucketName); err != nil {
			return nil, fmt.Errorf("failed to ensure bucket %s exists: %w", bucketName, err)
		}
	}

	log.Printf("Minio client initialized successfully with buckets: %v", buckets)
	return client, nil
}

// ensureBucketExists creates a bucket if it doesn't exist
func (c *Client) ensureBucketExists(ctx context.Context, bucketName string) error {
	exists, err := c.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("failed to check if bucket exists: %w", err)
	}

	if !exists {
		err = c.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		log.Printf("Created bucket: %s", bucketName)
	}

	return nil
}

// ArchiveFile uploads a local file to the given bucket.
func (c *Client) ArchiveFile(ctx context.Context, bucketName, objectName, filePath, contentType string) error {
	_, err := c.client.FPutObject(ctx, bucketName, objectName, filePath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to archive %s to %s: %w", filePath, bucketName, err)
	}

	log.Printf("Archived %s to bucket %s", objectName, bucketName)
	return nil
}

// GetFileLink generates a presigned URL for file download
func (c *Client) GetFileLink(ctx context.Context, bucketName, objectName string, expires time.Duration) (string, error) {
	presignedURL, err := c.client.PresignedGetObject(ctx, bucketName, objectName, expires, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return presignedURL.String(), nil
}

// Ping verifies the endpoint is reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.client.BucketExists(ctx, VideoBucket)
	return err
}
