package util

import (
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Stem returns the file name without directory or extension
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// IsVideoFile reports whether the extension maps to a video mime type
func IsVideoFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false
	}
	if t, ok := videoTypes[ext]; ok {
		return t
	}
	return strings.HasPrefix(mime.TypeByExtension(ext), "video/")
}

// mime tables differ per OS, so the common containers are pinned here
var videoTypes = map[string]bool{
	".mp4":  true,
	".m4v":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
	".avi":  true,
	".mts":  true,
	".mpg":  true,
	".mpeg": true,
}

// ListMediaFiles returns the absolute paths of the video files directly
// inside dir, sorted by name. Directories and other files are skipped.
func ListMediaFiles(dir string) ([]string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !IsVideoFile(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(abs, e.Name()))
	}

	sort.Strings(files)
	return files, nil
}
