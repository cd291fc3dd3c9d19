package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, f.err
}

func TestUploadListingPhoto(t *testing.T) {
	fake := &fakeS3{}
	u := &Uploader{Client: fake, Bucket: "tilapia-photos", Region: "af-south-1"}

	url, err := u.UploadListingPhoto(context.Background(), "L1", strings.NewReader("png-bytes"), "image/PNG")
	require.NoError(t, err)

	key := aws.ToString(fake.input.Key)
	assert.True(t, strings.HasPrefix(key, "listings/L1/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.Equal(t, "image/png", aws.ToString(fake.input.ContentType))
	assert.Equal(t, "png-bytes", fake.body)
	assert.Equal(t, "https://tilapia-photos.s3.af-south-1.amazonaws.com/"+key, url)
}

func TestUploadListingPhoto_CloudFrontAndErrors(t *testing.T) {
	fake := &fakeS3{}
	u := &Uploader{Client: fake, Bucket: "b", Region: "r", CloudFrontDomain: "cdn.example.com"}

	url, err := u.UploadListingPhoto(context.Background(), "L1", strings.NewReader("x"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/"+aws.ToString(fake.input.Key), url)

	_, err = u.UploadListingPhoto(context.Background(), "L1", strings.NewReader("x"), "application/pdf")
	assert.Error(t, err)
	assert.False(t, AcceptsContentType("text/plain"))

	fake.err = errors.New("boom")
	_, err = u.UploadListingPhoto(context.Background(), "L1", strings.NewReader("x"), "image/webp")
	assert.ErrorContains(t, err, "failed to upload file to S3")
}
