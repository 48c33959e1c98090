//go:build !ios && !android && (amd64 || arm64)

// Package bindings handles loading FFmpeg shared libraries and registering
// function bindings using purego.
package bindings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/ebitengine/purego"
)

// ErrNotLoaded is returned when FFmpeg functions are called before Load().
var ErrNotLoaded = errors.New("fftranscode: FFmpeg libraries not loaded; call fftranscode.Init() first")

// ErrLibraryNotFound is returned when a required FFmpeg library cannot be found.
var ErrLibraryNotFound = errors.New("fftranscode: FFmpeg library not found")

// Library handles
var (
	libAVUtil     uintptr
	libAVCodec    uintptr
	libAVFormat   uintptr
	libSWResample uintptr

	loaded   bool
	loadOnce sync.Once
	loadErr  error
)

// Version function bindings
var (
	avutilVersion     func() uint32
	avcodecVersion    func() uint32
	avformatVersion   func() uint32
	swresampleVersion func() uint32
)

// Supported major versions, newest first.
var (
	versionsAVUtil     = []int{59, 58, 57}
	versionsAVCodec    = []int{61, 60, 59}
	versionsAVFormat   = []int{61, 60, 59}
	versionsSWResample = []int{5, 4}
)

// IsLoaded returns true if FFmpeg libraries have been successfully loaded.
func IsLoaded() bool {
	return loaded
}

// Load loads the FFmpeg libraries the transcoder needs and registers the
// version bindings. It is safe to call multiple times.
func Load() error {
	loadOnce.Do(func() {
		loadErr = doLoad()
		if loadErr == nil {
			loaded = true
		}
	})
	return loadErr
}

func doLoad() error {
	// Dependency order: avutil first, then the libraries linking against it.
	var err error

	libAVUtil, err = loadLibrary("avutil", versionsAVUtil)
	if err != nil {
		return fmt.Errorf("loading libavutil: %w", err)
	}

	libAVCodec, err = loadLibrary("avcodec", versionsAVCodec)
	if err != nil {
		return fmt.Errorf("loading libavcodec: %w", err)
	}

	libAVFormat, err = loadLibrary("avformat", versionsAVFormat)
	if err != nil {
		return fmt.Errorf("loading libavformat: %w", err)
	}

	libSWResample, err = loadLibrary("swresample", versionsSWResample)
	if err != nil {
		return fmt.Errorf("loading libswresample: %w", err)
	}

	purego.RegisterLibFunc(&avutilVersion, libAVUtil, "avutil_version")
	purego.RegisterLibFunc(&avcodecVersion, libAVCodec, "avcodec_version")
	purego.RegisterLibFunc(&avformatVersion, libAVFormat, "avformat_version")
	purego.RegisterLibFunc(&swresampleVersion, libSWResample, "swresample_version")

	return nil
}

// loadLibrary attempts to load a library by trying versioned names, first in
// the platform search paths and then through the dynamic loader.
func loadLibrary(name string, versions []int) (uintptr, error) {
	for _, candidate := range candidatePaths(name, versions) {
		if lib, err := tryOpen(candidate); err == nil {
			return lib, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrLibraryNotFound, name)
}

func candidatePaths(name string, versions []int) []string {
	var names []string
	for _, ver := range versions {
		names = append(names, LibraryFileName(name, ver))
	}
	names = append(names, LibraryFileName(name, 0))

	var out []string
	for _, dir := range LibrarySearchPaths() {
		for _, n := range names {
			out = append(out, filepath.Join(dir, n))
		}
	}
	// Bare names last so the loader can consult its own cache.
	return append(out, names...)
}

// tryOpen opens a library with RTLD_NOW | RTLD_GLOBAL. FFmpeg libraries
// resolve symbols across each other, so RTLD_GLOBAL is required.
func tryOpen(path string) (uintptr, error) {
	return purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
}

// LibraryFileName returns the platform-specific library filename.
// A version of 0 yields the unversioned name.
//
//   - Linux:   LibraryFileName("avcodec", 60) -> "libavcodec.so.60"
//   - macOS:   LibraryFileName("avcodec", 60) -> "libavcodec.60.dylib"
//   - Windows: LibraryFileName("avcodec", 60) -> "avcodec-60.dll"
func LibraryFileName(name string, version int) string {
	switch runtime.GOOS {
	case "darwin":
		if version > 0 {
			return fmt.Sprintf("lib%s.%d.dylib", name, version)
		}
		return "lib" + name + ".dylib"
	case "windows":
		if version > 0 {
			return fmt.Sprintf("%s-%d.dll", name, version)
		}
		return name + ".dll"
	default:
		if version > 0 {
			return fmt.Sprintf("lib%s.so.%d", name, version)
		}
		return "lib" + name + ".so"
	}
}

// FindLibrary searches for a library and returns its full path.
// This is useful for diagnostics.
func FindLibrary(name string, versions []int) (string, error) {
	for _, candidate := range candidatePaths(name, versions) {
		if !filepath.IsAbs(candidate) {
			continue
		}
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrLibraryNotFound, name)
}

// LibrarySearchPaths returns platform-specific library search paths.
func LibrarySearchPaths() []string {
	var paths []string

	switch runtime.GOOS {
	case "linux", "freebsd":
		if ldPath := os.Getenv("LD_LIBRARY_PATH"); ldPath != "" {
			paths = append(paths, filepath.SplitList(ldPath)...)
		}
		paths = append(paths,
			"/usr/lib/x86_64-linux-gnu",
			"/usr/lib/aarch64-linux-gnu",
			"/usr/local/lib",
			"/usr/lib",
			"/lib/x86_64-linux-gnu",
			"/lib",
		)

	case "darwin":
		if dyldPath := os.Getenv("DYLD_LIBRARY_PATH"); dyldPath != "" {
			paths = append(paths, filepath.SplitList(dyldPath)...)
		}
		paths = append(paths,
			"/opt/homebrew/lib",
			"/usr/local/lib",
			"/opt/homebrew/opt/ffmpeg/lib",
			"/usr/local/opt/ffmpeg/lib",
		)

	case "windows":
		if winPath := os.Getenv("PATH"); winPath != "" {
			paths = append(paths, filepath.SplitList(winPath)...)
		}
		if exe, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Dir(exe))
		}
		paths = append(paths,
			"C:\\ffmpeg\\bin",
			"C:\\Program Files\\ffmpeg\\bin",
		)
	}

	return paths
}

// AVUtilVersion returns the avutil library version, or 0 if not loaded.
func AVUtilVersion() uint32 {
	if !loaded || avutilVersion == nil {
		return 0
	}
	return avutilVersion()
}

// AVCodecVersion returns the avcodec library version, or 0 if not loaded.
func AVCodecVersion() uint32 {
	if !loaded || avcodecVersion == nil {
		return 0
	}
	return avcodecVersion()
}

// AVFormatVersion returns the avformat library version, or 0 if not loaded.
func AVFormatVersion() uint32 {
	if !loaded || avformatVersion == nil {
		return 0
	}
	return avformatVersion()
}

// SWResampleVersion returns the swresample library version, or 0 if not loaded.
func SWResampleVersion() uint32 {
	if !loaded || swresampleVersion == nil {
		return 0
	}
	return swresampleVersion()
}

// LibAVUtil returns the avutil library handle.
func LibAVUtil() uintptr {
	return libAVUtil
}

// LibAVCodec returns the avcodec library handle.
func LibAVCodec() uintptr {
	return libAVCodec
}

// LibAVFormat returns the avformat library handle.
func LibAVFormat() uintptr {
	return libAVFormat
}

// LibSWResample returns the swresample library handle.
func LibSWResample() uintptr {
	return libSWResample
}
