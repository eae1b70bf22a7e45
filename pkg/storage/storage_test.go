package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestValidateImageType(t *testing.T) {
	tests := []struct {
		contentType string
		wantExt     string
		wantErr     bool
	}{
		{"image/jpeg", "jpg", false},
		{"IMAGE/PNG", "png", false},
		{"image/webp", "webp", false},
		{"image/gif", "", true},
		{"image/svg+xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			ext, err := ValidateImageType(tt.contentType)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantExt, ext)
		})
	}
}

func TestValidateImageSize(t *testing.T) {
	small := base64.StdEncoding.EncodeToString([]byte("tiny image"))
	assert.NoError(t, ValidateImageSize(small))
	assert.NoError(t, ValidateImageSize("data:image/png;base64,"+small))

	big := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("x", MaxImageSize+1)))
	assert.Error(t, ValidateImageSize(big))

	assert.Error(t, ValidateImageSize("!!not-base64!!"))
	assert.Error(t, ValidateImageSize("data:image/png;base64"))
	assert.Error(t, ValidateImageSize(""))
}

func TestUploadImage(t *testing.T) {
	putter := &fakePutter{}
	c := &Client{s3: putter, bucketName: "avatars", publicBase: "https://cdn.example.com"}

	data := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png-bytes"))
	url, err := c.UploadImage(context.Background(), data, "avatars/u1.png", "image/png")
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/avatars/u1.png", url)
	assert.Equal(t, "avatars", *putter.input.Bucket)
	assert.Equal(t, []byte("png-bytes"), putter.body)
}

func TestUploadImageFailure(t *testing.T) {
	c := &Client{s3: &fakePutter{err: errors.New("denied")}, bucketName: "b", publicBase: "x"}
	_, err := c.UploadImage(context.Background(), base64.StdEncoding.EncodeToString([]byte("a")), "k", "image/png")
	assert.ErrorContains(t, err, "denied")
}

func TestNewClientRequiresBucket(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)

	c, err := NewClient(Config{Bucket: "avatars", Endpoint: "http://minio:9000/"})
	require.NoError(t, err)
	assert.Equal(t, "http://minio:9000/avatars", c.publicBase)
}
