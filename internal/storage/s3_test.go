package storage

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	s3iface.S3API
	input *s3.PutObjectInput
	err   error
}

func (f *fakeS3) PutObjectWithContext(ctx aws.Context, in *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestBlobKey(t *testing.T) {
	published := time.Date(2020, 3, 15, 10, 30, 0, 0, time.UTC)

	assert.Equal(t, "2020/03/15/202003151030_original.csv", BlobKey(published, RawSuffix))
	assert.Equal(t, "2020/03/15/202003151030.json", BlobKey(published, DatasetSuffix))
}

func TestPutObjectMetadata(t *testing.T) {
	fake := &fakeS3{}
	store := NewS3StoreWithClient(fake, "luftguetemesswerte")

	err := store.Put(context.Background(), "2020/03/15/202003151030_original.csv", []byte("NAME;Zeit-O2"), "text/csv")
	require.NoError(t, err)
	require.NotNil(t, fake.input)

	in := fake.input
	assert.Equal(t, "luftguetemesswerte", aws.StringValue(in.Bucket))
	assert.Equal(t, "2020/03/15/202003151030_original.csv", aws.StringValue(in.Key))
	assert.Equal(t, s3.ObjectCannedACLPublicRead, aws.StringValue(in.ACL))
	assert.Equal(t, "public, max-age=31536000, immutable", aws.StringValue(in.CacheControl))
	assert.Equal(t, "text/csv", aws.StringValue(in.ContentType))
	assert.Equal(t, s3.ServerSideEncryptionAes256, aws.StringValue(in.ServerSideEncryption))
	assert.Equal(t, s3.StorageClassReducedRedundancy, aws.StringValue(in.StorageClass))
	assert.Equal(t, 2099, aws.TimeValue(in.Expires).Year())

	body, err := io.ReadAll(in.Body)
	require.NoError(t, err)
	assert.Equal(t, "NAME;Zeit-O2", string(body))
}

func TestPutWrapsError(t *testing.T) {
	fake := &fakeS3{err: assert.AnError}
	store := NewS3StoreWithClient(fake, "luftguetemesswerte")

	err := store.Put(context.Background(), "key", nil, "text/csv")
	assert.ErrorIs(t, err, assert.AnError)
}
