package fsutil

import (
	"os"
	"path/filepath"
)

// AppName is the name of the application used in paths.
const AppName = "albuild"

// GetCacheDir returns the platform-specific cache directory for the application.
// On Linux: ~/.cache/albuild/
// On macOS: ~/Library/Caches/albuild/
// On Windows: %LOCALAPPDATA%\albuild\cache\
func GetCacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, AppName), nil
}

// GetDownloadCacheDir returns the directory for downloaded package archives.
// Format: <cache_dir>/downloads/
func GetDownloadCacheDir() (string, error) {
	cacheDir, err := GetCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "downloads"), nil
}
