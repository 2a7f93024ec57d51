package file

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalOpen(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	p := filepath.Join(dir, "acomp.xlsx")
	require.NoError(t, os.WriteFile(p, []byte("data"), 0o600))

	l := NewLocal(p)
	assert.Equal(t, p, l.Name())
	rc, err := l.Open(context.Background())
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "data", string(b))
}

func TestLocalOpenErrors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	_, err := NewLocal(filepath.Join(dir, "missing.xlsx")).Open(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, err = NewLocal(dir).Open(context.Background())
	require.ErrorContains(t, err, "is a directory")

	_, err = NewLocal("").Open(context.Background())
	require.ErrorContains(t, err, "empty path")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewLocal(dir).Open(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
