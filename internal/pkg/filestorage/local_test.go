package filestorage

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_SaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	ls, err := NewLocalStorage(dir, "http://api.test/")
	require.NoError(t, err)

	url, err := ls.Save(strings.NewReader("png-bytes"), "Cover.PNG", "thumbnails")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://api.test/uploads/thumbnails/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	path := ls.GetFullPath(url)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, ls.DeleteFile(url))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// deleting twice is fine
	assert.NoError(t, ls.DeleteFile(url))
}

func TestLocalStorage_GetFullPathStaysInside(t *testing.T) {
	dir := t.TempDir()
	ls, err := NewLocalStorage(dir, "")
	require.NoError(t, err)

	p := ls.GetFullPath("/uploads/../../etc/passwd")
	assert.True(t, strings.HasPrefix(p, dir))
	assert.Equal(t, "", ls.GetFullPath("/elsewhere/file.png"))
	assert.Error(t, ls.DeleteFile("/elsewhere/file.png"))
}
