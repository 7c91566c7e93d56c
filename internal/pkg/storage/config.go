package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/linklocker/LinkLocker/internal/pkg/env"
)

// Config holds object storage configuration
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	PublicBaseURL   string // Base URL under which stored objects are reachable
}

// LoadConfig loads object storage configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-west-001"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		PublicBaseURL:   env.GetEnv("S3_PUBLIC_BASE_URL", ""),
	}

	if config.AccessKeyID == "" {
		return nil, errors.New("S3_ACCESS_KEY_ID is required")
	}
	if config.SecretAccessKey == "" {
		return nil, errors.New("S3_SECRET_ACCESS_KEY is required")
	}
	if config.BucketName == "" {
		return nil, errors.New("S3_BUCKET_NAME is required")
	}

	return config, nil
}

// GetBucketName returns the bucket name as configured (no automatic prefixing)
func (c *Config) GetBucketName() string {
	return c.BucketName
}

// NewObjectKey generates a unique object key for an uploaded file. The UUID
// prefix keeps same-named uploads from colliding.
func NewObjectKey(fileName string) string {
	return fmt.Sprintf("link_files/%s-%s", uuid.NewString(), sanitizeFileName(fileName))
}

// PublicURL returns the externally reachable URL for an object key.
func (c *Config) PublicURL(objectKey string) string {
	base := strings.TrimSuffix(c.PublicBaseURL, "/")
	if base == "" {
		if c.EndpointURL != "" {
			base = fmt.Sprintf("%s/%s", strings.TrimSuffix(c.EndpointURL, "/"), c.BucketName)
		} else {
			base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", c.BucketName, c.Region)
		}
	}
	return base + "/" + objectKey
}

func sanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", "?", "_", "#", "_", "&", "_")
	name = replacer.Replace(name)
	if name == "" {
		name = "file"
	}
	return name
}
