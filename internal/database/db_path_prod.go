//go:build prod

package database

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// GetDefaultDBPath stores the database under the user's config directory,
// falling back to the working directory when that is not writable.
func GetDefaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err == nil {
		dir = filepath.Join(dir, "awaken")
		err = os.MkdirAll(dir, 0o755)
	}
	if err != nil {
		logrus.WithError(err).WithField("component", "database").
			Warn("config dir unavailable, using working directory")
		return fileName
	}
	return filepath.Join(dir, fileName)
}

func IsDevelopment() bool { return false }
