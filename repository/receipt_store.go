package repository

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3ReceiptStore uploads receipts to an S3-compatible bucket (Cloudflare R2)
type S3ReceiptStore struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
}

// S3ReceiptConfig holds the bucket settings
type S3ReceiptConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicBaseURL string
}

// NewS3ReceiptStore creates a new S3ReceiptStore
func NewS3ReceiptStore(ctx context.Context, cfg S3ReceiptConfig) (*S3ReceiptStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	return &S3ReceiptStore{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

// Ensure S3ReceiptStore implements ReceiptStore
var _ ReceiptStore = (*S3ReceiptStore)(nil)

// Put uploads data under key and returns its public URL
func (s *S3ReceiptStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload receipt: %w", err)
	}
	return PublicURL(s.publicBaseURL, key), nil
}

// PublicURL joins the public bucket URL and an object key
func PublicURL(base, key string) string {
	if base == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
