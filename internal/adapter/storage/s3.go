package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	s3manager "github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	appconfig "github.com/semmidev/pgstash/internal/config"
	"github.com/semmidev/pgstash/internal/domain"
)

type S3Storage struct {
	client     *s3.Client
	uploader   *s3manager.Uploader
	downloader *s3manager.Downloader
	bucket     string
	prefix     string
}

// NewS3 creates an S3Storage for AWS or any S3-compatible endpoint. A custom
// endpoint switches to path-style addressing, which MinIO and most
// self-hosted servers require.
func NewS3(ctx context.Context, cfg *appconfig.StorageConfig) (*S3Storage, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Storage{
		client:     client,
		uploader:   s3manager.NewUploader(client),
		downloader: s3manager.NewDownloader(client),
		bucket:     cfg.Bucket,
		prefix:     cfg.Prefix,
	}, nil
}

func (s *S3Storage) Upload(ctx context.Context, localPath string, remoteName string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return &domain.TransferError{Op: "upload", Name: remoteName, Err: fmt.Errorf("failed to open file: %w", err)}
	}
	defer file.Close()

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(remoteName)),
		Body:   file,
	})
	if err != nil {
		return &domain.TransferError{Op: "upload", Name: remoteName, Err: err}
	}

	return nil
}

func (s *S3Storage) Download(ctx context.Context, remoteName string, localPath string) error {
	file, err := os.Create(localPath)
	if err != nil {
		return &domain.TransferError{Op: "download", Name: remoteName, Err: fmt.Errorf("failed to create file: %w", err)}
	}

	_, err = s.downloader.Download(ctx, file, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(remoteName)),
	})
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(localPath)
		if isNotFound(err) {
			err = fmt.Errorf("%w: s3://%s/%s", domain.ErrArtifactNotFound, s.bucket, s.key(remoteName))
		}
		return &domain.TransferError{Op: "download", Name: remoteName, Err: err}
	}

	return nil
}

func (s *S3Storage) Exists(ctx context.Context, remoteName string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(remoteName)),
	})
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, &domain.TransferError{Op: "head", Name: remoteName, Err: err}
	}
	return true, nil
}

// List returns all artifact names under the prefix, following pagination.
func (s *S3Storage) List(ctx context.Context) ([]string, error) {
	objects, err := s.listObjects(ctx)
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(objects))
	for _, obj := range objects {
		if name := s.name(aws.ToString(obj.Key)); name != "" {
			files = append(files, name)
		}
	}

	return files, nil
}

func (s *S3Storage) Delete(ctx context.Context, remoteName string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(remoteName)),
	})
	if err != nil {
		return &domain.TransferError{Op: "delete", Name: remoteName, Err: err}
	}

	return nil
}

func (s *S3Storage) GetOldFiles(ctx context.Context, cutoffTime time.Time) ([]string, error) {
	objects, err := s.listObjects(ctx)
	if err != nil {
		return nil, err
	}

	var oldFiles []string
	for _, obj := range objects {
		if obj.LastModified == nil || !obj.LastModified.Before(cutoffTime) {
			continue
		}
		if name := s.name(aws.ToString(obj.Key)); name != "" {
			oldFiles = append(oldFiles, name)
		}
	}

	return oldFiles, nil
}

func (s *S3Storage) listObjects(ctx context.Context) ([]types.Object, error) {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(s.bucket)}
	if s.prefix != "" {
		input.Prefix = aws.String(strings.TrimSuffix(s.prefix, "/") + "/")
	}

	var objects []types.Object
	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, &domain.TransferError{Op: "list", Name: s.bucket, Err: err}
		}
		objects = append(objects, page.Contents...)
	}

	return objects, nil
}

func (s *S3Storage) key(name string) string {
	if s.prefix == "" {
		return name
	}
	// keys are kept literal so ".." segments never leave the prefix
	return strings.TrimSuffix(s.prefix, "/") + "/" + name
}

func (s *S3Storage) name(key string) string {
	if s.prefix == "" {
		return key
	}
	return strings.TrimPrefix(strings.TrimPrefix(key, strings.TrimSuffix(s.prefix, "/")), "/")
}

// isNotFound recognises GetObject's NoSuchKey and HeadObject's bare 404.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}

	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}

	return false
}
