package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, f.err
}

func TestUpload(t *testing.T) {
	putter := &fakePutter{}
	store := NewMediaStoreWithClient(putter, "media", "http://cdn.test/media/")
	store.now = func() time.Time { return time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC) }

	out, err := store.Upload(context.Background(), UploadInput{
		Reader:      strings.NewReader("png-bytes"),
		ContentType: "image/png",
		Size:        9,
	})
	require.NoError(t, err)

	assert.Regexp(t, `^2025/03/14/[0-9a-f-]{36}\.png$`, out.Key)
	assert.Equal(t, "http://cdn.test/media/"+out.Key, out.URL)
	assert.Equal(t, "media", aws.ToString(putter.input.Bucket))
	assert.Equal(t, "image/png", aws.ToString(putter.input.ContentType))
	assert.Equal(t, "png-bytes", putter.body)
}

func TestUploadKeepsFilenameExtension(t *testing.T) {
	store := NewMediaStoreWithClient(&fakePutter{}, "media", "http://cdn.test")

	out, err := store.Upload(context.Background(), UploadInput{
		Reader:      strings.NewReader("x"),
		ContentType: "image/jpeg",
		Filename:    "flyer.jpeg",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out.Key, ".jpeg"))
}

func TestUploadError(t *testing.T) {
	store := NewMediaStoreWithClient(&fakePutter{err: errors.New("denied")}, "media", "http://cdn.test")

	_, err := store.Upload(context.Background(), UploadInput{Reader: strings.NewReader("x"), ContentType: "image/gif"})
	assert.ErrorContains(t, err, "uploading to s3")
}
