// Package archive copies rendered documents to an S3-compatible bucket.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"ddt-backend/internal/config"
	"ddt-backend/internal/metrics"
)

// Archiver stores one rendered document and returns its object key.
type Archiver interface {
	Store(ctx context.Context, filename string, issued time.Time, pdf []byte) (string, error)
}

// Nop is used when no bucket is configured.
type Nop struct{}

func (Nop) Store(context.Context, string, time.Time, []byte) (string, error) { return "", nil }

// putter is the slice of the S3 API the archive uses.
type putter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Archive struct {
	client putter
	bucket string
	prefix string
	logger *zap.Logger
}

// New returns Nop when the archive is disabled.
func New(ctx context.Context, cfg config.ArchiveConfig, logger *zap.Logger) (Archiver, error) {
	if !cfg.Enabled() {
		return Nop{}, nil
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("configurazione archivio S3: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			// MinIO and other S3-compatible stores
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Archive(client, cfg.Bucket, cfg.Prefix, logger), nil
}

func newS3Archive(client putter, bucket, prefix string, logger *zap.Logger) *S3Archive {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &S3Archive{client: client, bucket: bucket, prefix: prefix, logger: logger}
}

// Key is <prefix>/<year>/<filename>.
func (a *S3Archive) Key(filename string, issued time.Time) string {
	return path.Join(a.prefix, strconv.Itoa(issued.Year()), filename)
}

func (a *S3Archive) Store(ctx context.Context, filename string, issued time.Time, pdf []byte) (string, error) {
	key := a.Key(filename, issued)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(pdf),
		ContentLength: aws.Int64(int64(len(pdf))),
		ContentType:   aws.String("application/pdf"),
	})
	metrics.RecordArchive(err)
	if err != nil {
		return "", fmt.Errorf("archiviazione %s: %w", key, err)
	}
	a.logger.Debug("document archived", zap.String("bucket", a.bucket), zap.String("key", key))
	return key, nil
}
