package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/eventra/dashboard/api/internal/config"
)

// ErrArchiveDisabled is returned when no bucket is configured.
var ErrArchiveDisabled = errors.New("export archive bucket is not configured")

// ObjectPutter is the subset of the S3 client used for archiving.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ExportArchive stores CSV exports in an S3 compatible bucket.
type ExportArchive struct {
	client ObjectPutter
	bucket string
	prefix string
}

// NewExportArchive builds an archive from configuration. Credentials resolve
// through the SDK default chain unless static keys are configured.
func NewExportArchive(ctx context.Context, cfg config.ArchiveConfig) (*ExportArchive, error) {
	if !cfg.Enabled() {
		return nil, ErrArchiveDisabled
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if provider := credentialsFor(cfg); provider != nil {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(provider))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewExportArchiveWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

// credentialsFor returns nil when the default credential chain should apply.
// Custom endpoints without keys are treated as public MinIO style buckets.
func credentialsFor(cfg config.ArchiveConfig) aws.CredentialsProvider {
	switch {
	case cfg.AccessKeyID != "" && cfg.SecretAccessKey != "":
		return credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	case cfg.Endpoint != "":
		return aws.AnonymousCredentials{}
	default:
		return nil
	}
}

// NewExportArchiveWithClient wires an archive around an existing client.
func NewExportArchiveWithClient(client ObjectPutter, bucket, prefix string) *ExportArchive {
	return &ExportArchive{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// Upload writes body under the configured prefix and returns its s3:// location.
func (a *ExportArchive) Upload(ctx context.Context, name string, body []byte) (string, error) {
	name = strings.TrimLeft(name, "/")
	if name == "" {
		return "", errors.New("archive object name is required")
	}
	key := name
	if a.prefix != "" {
		key = path.Join(a.prefix, name)
	}

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("text/csv; charset=utf-8"),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return fmt.Sprintf("s3://%s/%s", a.bucket, key), nil
}
