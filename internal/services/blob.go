package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"togethermiles-backend/internal/apperr"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const presignExpiry = 5 * time.Minute

// BlobStore wraps the S3 bucket behind the minimal surface the app needs:
// presigned PUT for uploads and a public URL for reads. Gallery photos, snap
// moments and payment screenshots all go through here.
type BlobStore struct {
	client   *s3.Client
	bucket   string
	region   string
	endpoint string
}

// NewBlobStore creates a blob store over one bucket. A non-empty endpoint
// switches to an S3-compatible host with path-style addressing.
func NewBlobStore(region, bucket, accessKey, secretKey, endpoint string) (*BlobStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if accessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &BlobStore{
		client:   client,
		bucket:   bucket,
		region:   region,
		endpoint: endpoint,
	}, nil
}

// PresignPut returns a presigned upload URL for the key.
func (b *BlobStore) PresignPut(ctx context.Context, key, contentType string) (string, error) {
	presignClient := s3.NewPresignClient(b.client)
	request, err := presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = presignExpiry
	})
	if err != nil {
		return "", fmt.Errorf("%w: presign put: %v", apperr.ErrUploadFailed, err)
	}
	return request.URL, nil
}

// PublicURL returns the stable read URL for a previously uploaded key.
func (b *BlobStore) PublicURL(key string) string {
	if b.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(b.endpoint, "/"), b.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", b.bucket, b.region, key)
}
