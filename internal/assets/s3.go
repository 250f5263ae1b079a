package assets

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// NewS3Client loads the shared AWS configuration (~/.aws/config) for
// profile and region; empty values fall back to the SDK defaults.
func NewS3Client(ctx context.Context, profile, region string) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	ctxCfg, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	cfg, err := awsconfig.LoadDefaultConfig(ctxCfg, opts...)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(cfg), nil
}

// S3Fetcher downloads s3://bucket/key sources
type S3Fetcher struct {
	downloader *manager.Downloader
}

func NewS3Fetcher(client *s3.Client) *S3Fetcher {
	return &S3Fetcher{downloader: manager.NewDownloader(client)}
}

func (f *S3Fetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	bucket, key, err := ParseS3URL(source)
	if err != nil {
		return nil, err
	}

	buf := manager.NewWriteAtBuffer(nil)
	if _, err := f.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		return nil, fmt.Errorf("unable to download object from s3, %s, %w", source, err)
	}
	return buf.Bytes(), nil
}

// ParseS3URL splits s3://bucket/key
func ParseS3URL(source string) (bucket, key string, err error) {
	u, err := url.Parse(source)
	if err != nil {
		return "", "", err
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Scheme != "s3" || u.Host == "" || key == "" {
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedSource, source)
	}
	return u.Host, key, nil
}
