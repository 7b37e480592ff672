package services

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go/logging"
	"github.com/essenza/backend/internal/config"
)

type S3Service struct {
	client *s3.Client
}

func NewS3Service(cfg *config.Config) (*S3Service, error) {
	client, err := buildClient(cfg.MediaS3Endpoint, cfg.MediaS3Region, cfg.MediaS3AccessKeyID, cfg.MediaS3SecretAccessKey, cfg.MediaS3UsePathStyle)
	if err != nil {
		return nil, err
	}
	return &S3Service{client: client}, nil
}

// buildClient configures an S3 client. A non-empty endpoint switches the
// client to a custom S3-compatible host (MinIO in development).
func buildClient(endpoint, region, key, secret string, pathStyle bool) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(key, secret, "")),
		awsconfig.WithLogger(logging.NewStandardLogger(os.Stderr)),
	)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = pathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

// uploadPartSize keeps multipart chunks large enough that audio files
// rarely need more than a handful of parts
const uploadPartSize = 10 * 1024 * 1024

// UploadMedia uploads an image or audio object to the given media bucket
func (s *S3Service) UploadMedia(ctx context.Context, bucket, key string, body io.Reader, ctype string) error {
	uploader := manager.NewUploader(s.client, func(u *manager.Uploader) {
		u.PartSize = uploadPartSize
	})
	_, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(ctype),
		ACL:         s3types.ObjectCannedACLPrivate,
	})
	return err
}

// PresignMediaGet returns a presigned GET URL for a media object
func (s *S3Service) PresignMediaGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	out, err := s3.NewPresignClient(s.client).PresignGetObject(ctx,
		&s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)},
		s3.WithPresignExpires(ttl))
	if err != nil {
		return "", err
	}
	return out.URL, nil
}

func (s *S3Service) MediaURL(bucket, key string) string {
	e := s.client.Options().BaseEndpoint
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s/%s/%s", *e, bucket, url.PathEscape(key))
}

// DownloadMediaToFile fetches a media object directly to a local file, used
// for caching large audio assets on disk
func (s *S3Service) DownloadMediaToFile(ctx context.Context, bucket, key, destPath string) error {
	f, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer f.Close()
	downloader := manager.NewDownloader(s.client)
	_, err = downloader.Download(ctx, f, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	return err
}

// ListMediaKeys walks every object key under a prefix, following
// continuation tokens until the listing is exhausted
func (s *S3Service) ListMediaKeys(ctx context.Context, bucket, prefix string, pageSize int32) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(pageSize),
	})

	keys := []string{}
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

// DeleteMedia deletes an object from the media bucket
func (s *S3Service) DeleteMedia(ctx context.Context, bucket, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	return err
}
