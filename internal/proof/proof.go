// Package proof stores completion evidence (photos) in S3-compatible
// storage. The rest of the system only ever sees the opaque reference
// string this package hands back — never the bytes.
package proof

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ErrDisabled is returned when no object storage is configured.
var ErrDisabled = errors.New("proof storage not configured")

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Config holds S3-compatible storage configuration.
type Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Store uploads and retrieves proof objects.
type Store struct {
	cfg    Config
	client s3Client
}

// NewStore creates a proof store. With incomplete configuration the store is
// disabled and every operation returns ErrDisabled — submissions then rely
// on caller-supplied references.
func NewStore(cfg Config) *Store {
	st := &Store{cfg: cfg}
	if cfg.Bucket != "" && cfg.AccessKey != "" && cfg.SecretKey != "" {
		st.client = newS3Client(cfg)
	}
	return st
}

func newS3Client(cfg Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Enabled reports whether uploads are possible.
func (s *Store) Enabled() bool {
	return s.client != nil
}

// Put uploads proof bytes for a child's submission and returns the opaque
// reference to store on the assignment.
func (s *Store) Put(ctx context.Context, childID int64, contentType string, body io.Reader) (string, error) {
	if s.client == nil {
		return "", ErrDisabled
	}

	key := fmt.Sprintf("proofs/%d/%s", childID, uuid.New().String())
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put proof object: %w", err)
	}
	return key, nil
}

// Get streams a proof object back by its reference. The caller closes the
// returned reader.
func (s *Store) Get(ctx context.Context, ref string) (io.ReadCloser, string, error) {
	if s.client == nil {
		return nil, "", ErrDisabled
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(ref),
	})
	if err != nil {
		return nil, "", fmt.Errorf("get proof object: %w", err)
	}

	contentType := ""
	if out.ContentType != nil {
		contentType = *out.ContentType
	}
	return out.Body, contentType, nil
}

// Delete removes a proof object, e.g. when its assignment is deleted.
func (s *Store) Delete(ctx context.Context, ref string) error {
	if s.client == nil {
		return ErrDisabled
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(ref),
	})
	if err != nil {
		return fmt.Errorf("delete proof object: %w", err)
	}
	return nil
}
