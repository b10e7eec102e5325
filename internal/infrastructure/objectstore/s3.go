package objectstore

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const (
	KeyPrefix     = "products/"
	PresignExpiry = time.Hour
)

// ObjectAPI is the subset of *s3.Client used for uploads.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// PresignAPI is the subset of *s3.PresignClient used for upload URLs.
type PresignAPI interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Options configures an S3 compatible bucket such as Cloudflare R2.
type S3Options struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
}

// NewS3Clients builds the object and presign clients for opts.
// R2 needs path-style addressing.
func NewS3Clients(ctx context.Context, opts S3Options) (*s3.Client, *s3.PresignClient, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(opts.Region)}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = true
	})
	return client, s3.NewPresignClient(client), nil
}

// Object is a stored image.
type Object struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// PresignedUpload lets a browser PUT a file straight to the bucket.
type PresignedUpload struct {
	UploadURL string `json:"uploadUrl"`
	PublicURL string `json:"publicUrl"`
	Key       string `json:"key"`
}

// Store writes product images to a bucket and builds their public URLs.
type Store struct {
	objects   ObjectAPI
	presigner PresignAPI
	bucket    string
	publicURL string
	newKey    func(fileName string) string
}

func NewStore(objects ObjectAPI, presigner PresignAPI, bucket, publicURL string) *Store {
	return &Store{
		objects:   objects,
		presigner: presigner,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		newKey:    NewKey,
	}
}

// Put uploads body under a fresh key derived from fileName.
func (s *Store) Put(ctx context.Context, fileName, contentType string, size int64, body io.Reader) (Object, error) {
	key := s.newKey(fileName)
	_, err := s.objects.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return Object{}, fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return Object{Key: key, URL: s.PublicURL(key)}, nil
}

// PresignUpload returns a PUT URL valid for PresignExpiry.
func (s *Store) PresignUpload(ctx context.Context, fileName string) (PresignedUpload, error) {
	key := s.newKey(fileName)
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(PresignExpiry))
	if err != nil {
		return PresignedUpload{}, fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return PresignedUpload{UploadURL: req.URL, PublicURL: s.PublicURL(key), Key: key}, nil
}

func (s *Store) PublicURL(key string) string {
	return s.publicURL + "/" + key
}

// PublicBase is the bucket URL objects are served from.
func (s *Store) PublicBase() string {
	return s.publicURL
}

// NewKey returns products/<uuid>.<ext>, keeping the file's extension.
// Names without one get "jpg".
func NewKey(fileName string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(fileName), "."))
	if ext == "" || strings.ContainsAny(ext, "/\\?#") {
		ext = "jpg"
	}
	return KeyPrefix + uuid.New().String() + "." + ext
}
