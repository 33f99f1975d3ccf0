// Package storage writes the raw feed file and the derived dataset to an
// S3 bucket, partitioned by the file's own publish date.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// Blob object key suffixes. Both keys derive from the publish timestamp
// inside the file, not from wall clock, so re-ingesting a file overwrites
// its own objects.
const (
	RawSuffix     = "_original.csv"
	DatasetSuffix = ".json"
)

// BlobStore is the object-store capability the pipeline needs.
type BlobStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

// S3Store implements BlobStore on an S3 bucket. Objects are written
// world-readable with an immutable cache policy and a far-future expiry:
// a published measurement file never changes under its key.
type S3Store struct {
	svc    s3iface.S3API
	bucket string
}

func NewS3Store(region, bucket string) (*S3Store, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return &S3Store{svc: s3.New(sess), bucket: bucket}, nil
}

// NewS3StoreWithClient wires an existing S3 client, used by tests.
func NewS3StoreWithClient(svc s3iface.S3API, bucket string) *S3Store {
	return &S3Store{svc: svc, bucket: bucket}
}

func (s *S3Store) Put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := s.svc.PutObjectWithContext(ctx, &s3.PutObjectInput{
		ACL:                  aws.String(s3.ObjectCannedACLPublicRead),
		Body:                 bytes.NewReader(body),
		Bucket:               aws.String(s.bucket),
		CacheControl:         aws.String("public, max-age=31536000, immutable"),
		ContentType:          aws.String(contentType),
		Expires:              aws.Time(time.Date(2099, 9, 9, 0, 0, 0, 0, time.UTC)),
		Key:                  aws.String(key),
		ServerSideEncryption: aws.String(s3.ServerSideEncryptionAes256),
		StorageClass:         aws.String(s3.StorageClassReducedRedundancy),
	})
	if err != nil {
		return fmt.Errorf("failed to put s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}

// BlobKey builds the date-partitioned object key
// YYYY/MM/DD/YYYYMMDDHHMM<suffix> from a publish timestamp.
func BlobKey(t time.Time, suffix string) string {
	return t.Format("2006/01/02/200601021504") + suffix
}
