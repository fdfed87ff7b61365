package asset

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalResource(t *testing.T) {
	_, thisFile, _, _ := runtime.Caller(0)
	res, err := NewResource(thisFile, nil)
	require.NoError(t, err)
	defer res.Close()

	require.False(t, res.IsRemote())
	require.Equal(t, res.Path(), res.RemotePath())
}

func TestLocalRelativeResource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scene.obj"), []byte("call lib.obj"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib.obj"), []byte("v 0 0 0"), 0o644))

	parent, err := NewResource(filepath.Join(dir, "scene.obj"), nil)
	require.NoError(t, err)
	defer parent.Close()

	child, err := NewResource("lib.obj", parent)
	require.NoError(t, err)
	defer child.Close()

	data, err := io.ReadAll(child)
	require.NoError(t, err)
	require.Equal(t, "v 0 0 0", string(data))
}

func TestHttpResource(t *testing.T) {
	_, thisFile, _, _ := runtime.Caller(0)
	thisDir := filepath.Dir(thisFile)

	server := httptest.NewServer(http.FileServer(http.Dir(thisDir)))
	defer server.Close()

	fetchUrl := server.URL + "/" + filepath.Base(thisFile)
	res, err := NewResource(fetchUrl, nil)
	require.NoError(t, err)
	defer res.Close()
	require.True(t, res.IsRemote())
	require.Equal(t, filepath.Base(thisFile), res.RemotePath())

	fetchUrl = server.URL + "/file-not-found.foo"
	_, err = NewResource(fetchUrl, nil)
	require.ErrorIs(t, err, ErrFetchFailed)
	require.EqualError(t, err, fmt.Sprintf("resource: could not fetch '%s': status %d", fetchUrl, 404))
}

func TestRelativeResources(t *testing.T) {
	serverHits := 0
	serverFn := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serverHits++
		if r.URL.Path == "/foo/file1.go" || r.URL.Path == "/foo/file2.go" {
			w.Write([]byte("OK"))
			return
		}
		http.NotFound(w, r)
	})
	server := httptest.NewServer(serverFn)
	defer server.Close()

	res1, err := NewResource(server.URL+"/foo/file1.go", nil)
	require.NoError(t, err)
	defer res1.Close()

	res2, err := NewResource("file2.go", res1)
	require.NoError(t, err)
	defer res2.Close()

	require.Equal(t, 2, serverHits)
}

func TestUnsupportedResourceScheme(t *testing.T) {
	_, err := NewResource("gopher://digging.go", nil)
	require.ErrorIs(t, err, ErrUnsupportedScheme)
	require.EqualError(t, err, "resource: unsupported scheme 'gopher'")
}

func TestResourceFromStream(t *testing.T) {
	res := NewResourceFromStream("embedded", strings.NewReader("payload"))
	defer res.Close()

	data, err := io.ReadAll(res)
	require.NoError(t, err)
	require.Equal(t, "payload", string(data))
	require.Equal(t, "embedded", res.Path())
}
