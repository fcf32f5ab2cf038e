package storage

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubObjectStorage(t *testing.T) {
	s := NewStubObjectStorage("https://files.test")
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "a/b.txt", strings.NewReader("akte"), 4, "text/plain"))
	assert.True(t, s.Has("a/b.txt"))

	rc, err := s.Get(ctx, "a/b.txt")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "akte", string(data))

	link, exp, err := s.PresignGet(ctx, "a/b.txt", "b.txt", time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "https://files.test/a/b.txt?"))
	assert.Contains(t, link, "filename=b.txt")
	assert.True(t, exp.After(time.Now()))

	require.NoError(t, s.Delete(ctx, "a/b.txt"))
	_, err = s.Get(ctx, "a/b.txt")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestStubObjectStorage_SizeMismatch(t *testing.T) {
	s := NewStubObjectStorage("")
	err := s.Put(context.Background(), "k", strings.NewReader("abc"), 10, "text/plain")
	assert.Error(t, err)
	assert.False(t, s.Has("k"))
}
