// Package docstore stores contract and driver document blobs in S3 (or an
// S3-compatible service). The rest of the system only persists object keys;
// bytes never touch the database.
package docstore

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2/log"
)

var (
	globalClient *Client
	setupOnce    sync.Once
)

// Setup initializes the global document store client. A disabled or failing
// store is not fatal: uploads are rejected at request time instead.
func Setup() {
	setupOnce.Do(func() {
		cfg, err := LoadConfig()
		if err != nil {
			log.Errorf("[DocStore] Invalid configuration: %v", err)
			return
		}
		if !cfg.IsEnabled() {
			log.Info("[DocStore] Document store disabled")
			return
		}
		client, err := NewClient(cfg)
		if err != nil {
			log.Errorf("[DocStore] Setup failed: %v", err)
			return
		}
		globalClient = client
	})
}

// GetClient returns the global document store client, or nil when disabled.
func GetClient() *Client {
	return globalClient
}

// Client wraps the S3 client with document-store functionality
type Client struct {
	s3Client *s3.Client
	config   *Config
}

// NewClient creates a new document store client
func NewClient(cfg *Config) (*Client, error) {
	if !cfg.IsEnabled() {
		return nil, fmt.Errorf("document store is disabled")
	}

	awsConfig, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			// Path-style URLs for S3-compatible services (MinIO, B2)
			o.UsePathStyle = true
			o.UseAccelerate = false
		}
	})

	client := &Client{
		s3Client: s3Client,
		config:   cfg,
	}

	if err := client.testConnection(); err != nil {
		return nil, fmt.Errorf("failed to connect to document store: %w", err)
	}

	log.Infof("[DocStore] Successfully initialized S3 client for bucket: %s", cfg.BucketName)
	return client, nil
}

// Config returns the configuration the client was built with
func (c *Client) Config() *Config {
	return c.config
}

// testConnection checks that the configured bucket is reachable
func (c *Client) testConnection() error {
	ctx := context.Background()

	_, err := c.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(c.config.BucketName),
	})
	if err != nil {
		return fmt.Errorf("bucket %s not accessible: %w", c.config.BucketName, err)
	}
	return nil
}

// Put uploads a document under the given object key
func (c *Client) Put(ctx context.Context, objectKey, contentType string, body io.Reader) error {
	_, err := c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.config.BucketName),
		Key:         aws.String(objectKey),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", objectKey, err)
	}
	return nil
}

// Get fetches a document by object key. The caller must close the reader.
func (c *Client) Get(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	out, err := c.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.config.BucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", objectKey, err)
	}
	return out.Body, nil
}

// Delete removes a document by object key
func (c *Client) Delete(ctx context.Context, objectKey string) error {
	_, err := c.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.config.BucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", objectKey, err)
	}
	return nil
}
