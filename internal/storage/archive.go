package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/pageza/fridge2fork/backend/config"
)

// ObjectPutter is the subset of the S3 client used by Archiver
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archiver copies generated images to an S3 bucket under generated/.
// A nil *Archiver does nothing.
type Archiver struct {
	client ObjectPutter
	bucket string
	prefix string
	logger zerolog.Logger
}

// NewArchiver returns nil when no bucket is configured
func NewArchiver(s3cfg *config.S3Config, logger zerolog.Logger) *Archiver {
	if s3cfg == nil || s3cfg.Client == nil {
		return nil
	}
	return NewArchiverWithClient(s3cfg.Client, s3cfg.BucketName, logger)
}

// NewArchiverWithClient builds an archiver over any ObjectPutter
func NewArchiverWithClient(client ObjectPutter, bucket string, logger zerolog.Logger) *Archiver {
	return &Archiver{
		client: client,
		bucket: bucket,
		prefix: "generated",
		logger: logger.With().Str("component", "archive").Str("bucket", bucket).Logger(),
	}
}

// Archive uploads the file at localPath and returns its object key
func (a *Archiver) Archive(ctx context.Context, localPath string) (string, error) {
	if a == nil {
		return "", nil
	}

	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s for archiving: %w", localPath, err)
	}

	key := path.Join(a.prefix, filepath.Base(localPath))
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/png"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	a.logger.Debug().Str("key", key).Msg("archived generated image")
	return key, nil
}
