package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/notaris/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.StorageConfig
		want string
	}{
		{"nil config", nil, "configuration is required"},
		{"missing bucket", &config.StorageConfig{AccessKey: "k", SecretKey: "s"}, "bucket is required"},
		{"missing access key", &config.StorageConfig{Bucket: "b", SecretKey: "s"}, "access key is required"},
		{"missing secret key", &config.StorageConfig{Bucket: "b", AccessKey: "k"}, "secret key is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewS3ObjectStorage(tt.cfg, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func newTestS3(t *testing.T) *S3ObjectStorage {
	t.Helper()
	s, err := NewS3ObjectStorage(&config.StorageConfig{
		Bucket:       "dossiers",
		AccessKey:    "minio",
		SecretKey:    "minio-secret",
		Region:       "eu-west-1",
		Endpoint:     "http://localhost:9000",
		UsePathStyle: true,
	}, nil)
	require.NoError(t, err)
	return s
}

func TestS3ObjectStorage_PresignGet(t *testing.T) {
	s := newTestS3(t)
	assert.Equal(t, "dossiers", s.Bucket())
	assert.Equal(t, DefaultPresignExpiry, s.presignExpiry)

	link, expiresAt, err := s.PresignGet(context.Background(), "office/dossiers/abc/doc.pdf", "Akte Janssens.pdf", 0)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "http://localhost:9000/dossiers/office/dossiers/abc/doc.pdf?"), link)
	assert.Contains(t, link, "X-Amz-Expires=900")
	assert.Contains(t, link, "response-content-disposition=")
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)
}

func TestS3ObjectStorage_EmptyKey(t *testing.T) {
	s := newTestS3(t)
	ctx := context.Background()

	_, _, err := s.PresignGet(ctx, "", "", 0)
	assert.ErrorIs(t, err, errKeyRequired)
	assert.ErrorIs(t, s.Put(ctx, "", strings.NewReader("x"), 1, "text/plain"), errKeyRequired)
	assert.ErrorIs(t, s.Delete(ctx, ""), errKeyRequired)
	_, err = s.Get(ctx, "")
	assert.ErrorIs(t, err, errKeyRequired)
}
