package blob

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/sgjo/shop-api/internal/domain/media"
)

var _ media.Storage = (*S3)(nil)

// S3Config configures an S3-compatible bucket.
type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	// PublicURL is the base URL objects are reachable at. When empty it is
	// derived from the endpoint or the AWS virtual-hosted style.
	PublicURL string
}

// Enabled reports whether enough is configured to use the bucket.
func (c S3Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 uploads files to a bucket.
type S3 struct {
	client  objectPutter
	bucket  string
	baseURL string
}

// NewS3 creates an S3 backend with static credentials.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3(client, cfg.Bucket, publicBaseURL(cfg, region)), nil
}

func newS3(client objectPutter, bucket, baseURL string) *S3 {
	return &S3{client: client, bucket: bucket, baseURL: strings.TrimRight(baseURL, "/")}
}

func publicBaseURL(cfg S3Config, region string) string {
	switch {
	case cfg.PublicURL != "":
		return cfg.PublicURL
	case cfg.Endpoint != "":
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, region)
	}
}

// Put uploads data as key and returns its public URL.
func (s *S3) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("putting %q to bucket %q: %w", key, s.bucket, err)
	}
	return s.baseURL + "/" + key, nil
}
