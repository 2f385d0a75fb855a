package fileutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquasecurity/nexus-download/pkg/fileutil"
)

func TestEnsureDir(t *testing.T) {
	tmp := t.TempDir()
	file := filepath.Join(tmp, "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	tests := []struct {
		name      string
		dir       string
		assertErr assert.ErrorAssertionFunc
	}{
		{
			name:      "already exists",
			dir:       tmp,
			assertErr: assert.NoError,
		},
		{
			name:      "nested missing",
			dir:       filepath.Join(tmp, "a", "b", "c"),
			assertErr: assert.NoError,
		},
		{
			name:      "path is a file",
			dir:       file,
			assertErr: assert.Error,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fileutil.EnsureDir(tt.dir)
			if !tt.assertErr(t, err) || err != nil {
				return
			}
			info, err := os.Stat(tt.dir)
			require.NoError(t, err)
			assert.True(t, info.IsDir())
		})
	}
}

func TestRemoveIfExists(t *testing.T) {
	tmp := t.TempDir()
	file := filepath.Join(tmp, "demo-1.2.0.jar")
	require.NoError(t, os.WriteFile(file, []byte("partial"), 0o600))

	require.NoError(t, fileutil.RemoveIfExists(file))
	assert.NoFileExists(t, file)

	// second removal is a no-op
	require.NoError(t, fileutil.RemoveIfExists(file))
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "result.json")
	err := fileutil.WriteJSON(path, []map[string]string{{"filename": "demo-1.2.0.jar"}})
	require.NoError(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"filename": "demo-1.2.0.jar"}]`, string(b))
}
