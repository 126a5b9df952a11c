package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// S3API is the part of the S3 client used for screenshots and reports.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Presigner presigns GET requests for report downloads.
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

type S3Service struct {
	Client    S3API
	Presigner Presigner
	Bucket    string
	Logger    *zap.Logger
}

func NewS3Service(cfg aws.Config, bucket string, log *zap.Logger) *S3Service {
	client := s3.NewFromConfig(cfg)
	return &S3Service{
		Client:    client,
		Presigner: s3.NewPresignClient(client),
		Bucket:    bucket,
		Logger:    log,
	}
}

func (ss *S3Service) Put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := ss.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(ss.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to put %s/%s: %w", ss.Bucket, key, err)
	}
	ss.Logger.Debug("stored object", zap.String("bucket", ss.Bucket), zap.String("key", key), zap.Int("bytes", len(body)))
	return nil
}

func (ss *S3Service) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := ss.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(ss.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", ss.Bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s/%s: %w", ss.Bucket, key, err)
	}
	return data, nil
}

// GenerateReadURL presigns a download link for key.
func (ss *S3Service) GenerateReadURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	req, err := ss.Presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(ss.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return req.URL, nil
}
