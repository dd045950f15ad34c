// Package s3backup mirrors content snapshots to an S3-compatible bucket.
package s3backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	s3aws "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/and161185/sitecms/internal/repository"
)

// ErrInvalidConfig is returned when bucket or region are missing.
var ErrInvalidConfig = errors.New("s3backup: bucket and region are required")

// S3Client is the subset of the S3 API used by Mirror.
type S3Client interface {
	PutObject(ctx context.Context, params *s3aws.PutObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.PutObjectOutput, error)
}

// Config describes the target bucket.
type Config struct {
	Bucket         string
	Region         string
	Prefix         string
	AccessKeyID    string
	SecretKey      string
	Endpoint       string // MinIO, R2 and other S3-compatible services
	ForcePathStyle bool
}

// Option configures Mirror.
type Option func(*options)

type options struct {
	client        S3Client
	uploadTimeout time.Duration
}

// WithS3Client injects a pre-built client, mainly for tests.
func WithS3Client(c S3Client) Option { return func(o *options) { o.client = c } }

// WithUploadTimeout bounds each PutObject call.
func WithUploadTimeout(d time.Duration) Option { return func(o *options) { o.uploadTimeout = d } }

// Mirror implements repository.BackupMirror.
type Mirror struct {
	client        S3Client
	bucket        string
	prefix        string
	uploadTimeout time.Duration
}

var _ repository.BackupMirror = (*Mirror)(nil)

// New builds a Mirror. Static credentials are used when both keys are set,
// otherwise the default AWS credential chain applies.
func New(ctx context.Context, cfg Config, opts ...Option) (*Mirror, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, ErrInvalidConfig
	}
	o := options{uploadTimeout: 30 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}

	client := o.client
	if client == nil {
		loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
		if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
			loadOpts = append(loadOpts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, ""),
			))
		}
		awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		client = s3aws.NewFromConfig(awsCfg, func(so *s3aws.Options) {
			if cfg.Endpoint != "" {
				so.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			so.UsePathStyle = cfg.ForcePathStyle
		})
	}

	return &Mirror{
		client:        client,
		bucket:        cfg.Bucket,
		prefix:        cfg.Prefix,
		uploadTimeout: o.uploadTimeout,
	}, nil
}

// Key returns the object key for a snapshot.
func (m *Mirror) Key(snap repository.Snapshot) string { return m.prefix + snap.Name }

// Put uploads the snapshot body.
func (m *Mirror) Put(ctx context.Context, snap repository.Snapshot) error {
	if m.uploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.uploadTimeout)
		defer cancel()
	}
	_, err := m.client.PutObject(ctx, &s3aws.PutObjectInput{
		Bucket:        aws.String(m.bucket),
		Key:           aws.String(m.Key(snap)),
		Body:          bytes.NewReader(snap.Body),
		ContentLength: aws.Int64(int64(len(snap.Body))),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", m.Key(snap), err)
	}
	return nil
}
