package docstore

import (
	"errors"
	"fmt"

	"github.com/fleetport/fleetport/internal/pkg/env"
)

// Config holds document store (S3) configuration
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	Enabled         bool
}

// LoadConfig loads document store configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("DOCS_S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("DOCS_S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("DOCS_S3_REGION", "eu-central-1"),
		BucketName:      env.GetEnv("DOCS_S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("DOCS_S3_ENDPOINT_URL", ""),
		Enabled:         env.GetEnv("DOCS_S3_ENABLED", "false") == "true",
	}

	if config.Enabled {
		if config.AccessKeyID == "" {
			return nil, errors.New("DOCS_S3_ACCESS_KEY_ID is required when the document store is enabled")
		}
		if config.SecretAccessKey == "" {
			return nil, errors.New("DOCS_S3_SECRET_ACCESS_KEY is required when the document store is enabled")
		}
		if config.BucketName == "" {
			return nil, errors.New("DOCS_S3_BUCKET_NAME is required when the document store is enabled")
		}
	}

	return config, nil
}

// IsEnabled returns true if the document store is enabled
func (c *Config) IsEnabled() bool {
	return c.Enabled
}

// DriverDocumentKey generates a standardized object key for a driver document
func (c *Config) DriverDocumentKey(driverID uint, documentUUID, fileExtension string) string {
	return fmt.Sprintf("drivers/%d/documents/%s%s", driverID, documentUUID, fileExtension)
}

// ContractDocumentKey generates a standardized object key for contract artifacts
// (captured signatures, finalized signed documents).
func (c *Config) ContractDocumentKey(contractNumber, name string) string {
	return fmt.Sprintf("contracts/%s/%s", contractNumber, name)
}
