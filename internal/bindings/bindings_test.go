//go:build !ios && !android && (amd64 || arm64)

package bindings

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLibrarySearchPaths(t *testing.T) {
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" && runtime.GOOS != "windows" && runtime.GOOS != "freebsd" {
		t.Skipf("no search paths defined for %s", runtime.GOOS)
	}
	assert.NotEmpty(t, LibrarySearchPaths())
}

func TestLibraryFileName(t *testing.T) {
	switch runtime.GOOS {
	case "darwin":
		assert.Equal(t, "libavcodec.60.dylib", LibraryFileName("avcodec", 60))
		assert.Equal(t, "libavcodec.dylib", LibraryFileName("avcodec", 0))
	case "windows":
		assert.Equal(t, "avcodec-60.dll", LibraryFileName("avcodec", 60))
		assert.Equal(t, "avcodec.dll", LibraryFileName("avcodec", 0))
	default:
		assert.Equal(t, "libavcodec.so.60", LibraryFileName("avcodec", 60))
		assert.Equal(t, "libavcodec.so", LibraryFileName("avcodec", 0))
	}
}

func TestCandidatePathsOrder(t *testing.T) {
	paths := candidatePaths("swresample", []int{5, 4})
	require.NotEmpty(t, paths)

	// Bare names come last, newest version first.
	tail := paths[len(paths)-3:]
	assert.Equal(t, LibraryFileName("swresample", 5), tail[0])
	assert.Equal(t, LibraryFileName("swresample", 4), tail[1])
	assert.Equal(t, LibraryFileName("swresample", 0), tail[2])
	for _, p := range paths[:len(paths)-3] {
		assert.True(t, strings.Contains(p, "swresample"), p)
	}
}

func TestFindLibraryMissing(t *testing.T) {
	_, err := FindLibrary("definitely-not-a-real-ffmpeg-lib", []int{1})
	assert.ErrorIs(t, err, ErrLibraryNotFound)
}

func TestLoadFFmpeg(t *testing.T) {
	if err := Load(); err != nil {
		t.Skipf("FFmpeg not available: %v", err)
	}
	require.True(t, IsLoaded())

	ver := AVUtilVersion()
	assert.NotZero(t, ver)
	assert.NotZero(t, SWResampleVersion())
	assert.NotZero(t, LibSWResample())

	t.Logf("FFmpeg loaded: avutil version %d.%d.%d",
		ver>>16, (ver>>8)&0xFF, ver&0xFF)
}
