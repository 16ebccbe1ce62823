package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/1F47E/go-trialreel/internal/logger"
	"github.com/1F47E/go-trialreel/internal/meta"
)

type S3SinkConfig struct {
	Bucket          string
	Prefix          string
	EndpointURL     string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// S3Sink uploads frames under Prefix in Bucket, for encoders that read from object storage.
type S3Sink struct {
	bucket   string
	prefix   string
	pattern  Pattern
	uploader *manager.Uploader
}

func NewS3Sink(ctx context.Context, cfg S3SinkConfig, pattern Pattern) (*S3Sink, error) {
	opts := []func(*aws_config.LoadOptions) error{
		aws_config.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, aws_config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := aws_config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			// MinIO style endpoints, they may reject the default payload checksums
			o.UsePathStyle = true
			o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		}
	})

	return &S3Sink{
		bucket:   cfg.Bucket,
		prefix:   cfg.Prefix,
		pattern:  pattern,
		uploader: manager.NewUploader(client),
	}, nil
}

func (s *S3Sink) SaveFrame(ctx context.Context, idx int, img image.Image) (meta.FrameEntry, error) {
	data, err := EncodeFrame(img)
	if err != nil {
		return meta.FrameEntry{}, err
	}
	name := s.pattern.Path(idx)
	if err := s.PutObject(ctx, name, bytes.NewReader(data)); err != nil {
		return meta.FrameEntry{}, err
	}
	return meta.FrameEntry{Name: name, Checksum: meta.Checksum(data)}, nil
}

func (s *S3Sink) PutObject(ctx context.Context, name string, data io.Reader) error {
	key := path.Join(s.prefix, name)
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   data,
	})
	if err != nil {
		return fmt.Errorf("failed to upload object to s3://%s/%s: %w", s.bucket, key, err)
	}
	logger.Scope("s3 sink").Debugf("Uploaded s3://%s/%s", s.bucket, key)
	return nil
}

func (s *S3Sink) Location() string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.prefix)
}
