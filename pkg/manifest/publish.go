package manifest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// DefaultName is the object name manifests are published under.
const DefaultName = "routes-manifest.json"

// Store receives published manifests.
type Store interface {
	Put(ctx context.Context, name string, data []byte) error
}

// Publish encodes m and writes it to store under name.
func Publish(ctx context.Context, store Store, name string, m *Manifest) error {
	if name == "" {
		name = DefaultName
	}
	var buf bytes.Buffer
	if err := m.Encode(&buf); err != nil {
		return fmt.Errorf("manifest: encode: %w", err)
	}
	if err := store.Put(ctx, name, buf.Bytes()); err != nil {
		return fmt.Errorf("manifest: publish %s: %w", name, err)
	}
	return nil
}

// FileStore writes manifests below a directory.
type FileStore struct {
	Dir string
}

// Put implements Store. The file is written to a temporary name and
// renamed into place.
func (s FileStore) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := filepath.Join(s.Dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, target)
}

// PutObjectAPI is the subset of *s3.Client used by S3Store.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store publishes manifests to an S3 bucket.
//
// Example usage:
//
//	client, _ := manifest.NewS3Client(manifest.S3Config{Region: "us-east-1"})
//	store := manifest.NewS3Store(client, "my-bucket", "routes/")
//	manifest.Publish(ctx, store, "", m)
type S3Store struct {
	client PutObjectAPI
	bucket string
	prefix string
}

// NewS3Store creates an S3 store writing objects as prefix+name.
func NewS3Store(client PutObjectAPI, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

// Put implements Store.
func (s *S3Store) Put(ctx context.Context, name string, data []byte) error {
	if s.bucket == "" {
		return errors.New("s3 bucket is required")
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(s.key(name)),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String("application/json"),
		CacheControl: aws.String("no-cache"),
	})
	return err
}

func (s *S3Store) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(strings.TrimSuffix(s.prefix, "/"), name)
}

// S3Config configures NewS3Client.
type S3Config struct {
	Region string

	// Endpoint overrides the S3 endpoint, for S3-compatible stores.
	Endpoint string

	// AccessKey and SecretKey default to AWS_ACCESS_KEY_ID and
	// AWS_SECRET_ACCESS_KEY.
	AccessKey string
	SecretKey string

	// PathStyle forces path-style addressing.
	PathStyle bool
}

// NewS3Client builds an S3 client with static credentials.
func NewS3Client(cfg S3Config) (*s3.Client, error) {
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}
	access := cfg.AccessKey
	if access == "" {
		access = os.Getenv("AWS_ACCESS_KEY_ID")
	}
	secret := cfg.SecretKey
	if secret == "" {
		secret = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}
	if access == "" || secret == "" {
		return nil, errors.New("s3 access key and secret key are required")
	}
	session := os.Getenv("AWS_SESSION_TOKEN")

	opts := s3.Options{
		Region: region,
		Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     access,
				SecretAccessKey: secret,
				SessionToken:    session,
				Source:          "fsroute",
			}, nil
		}),
		UsePathStyle: cfg.PathStyle,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts), nil
}
