package storage_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"songforge/internal/logger"
	"songforge/internal/storage"
)

type failingUploader struct{}

func (failingUploader) Upload(path, contentType string, data []byte) (string, error) {
	return "", errors.New("bucket unreachable")
}

type stubUploader struct{}

func (stubUploader) Upload(path, contentType string, data []byte) (string, error) {
	return "https://cdn.example/" + path, nil
}

func TestLocalUploadRoundTrip(t *testing.T) {
	local := storage.NewLocal()

	url, err := local.Upload("qr/o1.png", "image/png", []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "local://qr/o1.png", url)

	data, ok := local.Get("qr/o1.png")
	require.True(t, ok)
	assert.Equal(t, []byte("png-bytes"), data)
}

func TestLocalCopiesData(t *testing.T) {
	local := storage.NewLocal()

	buf := []byte("original")
	_, err := local.Upload("a", "text/plain", buf)
	require.NoError(t, err)

	buf[0] = 'X'
	data, _ := local.Get("a")
	assert.Equal(t, []byte("original"), data, "stored asset must not alias the caller's buffer")
}

func TestFallbackDegradesToLocalOnUploadFailure(t *testing.T) {
	fb := storage.NewFallback(failingUploader{}, logger.NewLogger())

	url, err := fb.Upload("qr/o1.png", "image/png", []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "local://qr/o1.png", url, "a failed upload must still yield a usable URL")

	data, ok := fb.Local.Get("qr/o1.png")
	require.True(t, ok)
	assert.Equal(t, []byte("png-bytes"), data)
}

func TestFallbackPrefersPrimary(t *testing.T) {
	fb := storage.NewFallback(stubUploader{}, logger.NewLogger())

	url, err := fb.Upload("qr/o1.png", "image/png", []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/qr/o1.png", url)

	_, ok := fb.Local.Get("qr/o1.png")
	assert.False(t, ok, "no local copy is kept when the primary succeeds")
}
