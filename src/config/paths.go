package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// StoragePaths contains paths for application storage
type StoragePaths struct {
	DatabasePath string
	LogPath      string
}

// GetDefaultStoragePaths returns default storage paths using XDG base directories
func GetDefaultStoragePaths() StoragePaths {
	// XDG_STATE_HOME holds data that should survive restarts but is not portable
	return StoragePaths{
		DatabasePath: filepath.Join(xdg.StateHome, appName, "conversations.db"),
		LogPath:      filepath.Join(xdg.StateHome, appName, "lenschat.log"),
	}
}

// StoragePaths returns the storage paths for config, honouring data.directory.
func (c *Config) StoragePaths() StoragePaths {
	if c.Data.Directory == "" {
		return GetDefaultStoragePaths()
	}
	return StoragePaths{
		DatabasePath: filepath.Join(c.Data.Directory, "conversations.db"),
		LogPath:      filepath.Join(c.Data.Directory, "lenschat.log"),
	}
}

// GetDefaultCachePath returns the default cache directory path
func GetDefaultCachePath() string {
	return filepath.Join(xdg.CacheHome, appName)
}
