//go:build !prod

package database

// GetDefaultDBPath keeps development databases next to the binary's working directory.
func GetDefaultDBPath() string {
	return fileName
}

func IsDevelopment() bool { return true }
