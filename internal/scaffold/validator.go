package scaffold

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dyluth/setgame/internal/config"
)

// CheckExisting checks if setgame.yml or .env already exist in dir
// Returns an error if they do, nil otherwise
func CheckExisting(dir string) error {
	var existingFiles []string

	for _, name := range []string{config.DefaultFile, EnvFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			existingFiles = append(existingFiles, name)
		}
	}

	if len(existingFiles) > 0 {
		errMsg := "project already initialized\n\nFound existing"
		if len(existingFiles) == 1 {
			errMsg += fmt.Sprintf(": %s\n", existingFiles[0])
		} else {
			errMsg += " files:\n"
			for _, file := range existingFiles {
				errMsg += fmt.Sprintf("  - %s\n", file)
			}
		}
		errMsg += "\nUse 'setgame init --force' to reinitialize (this will overwrite existing configuration)"

		return fmt.Errorf("%s", errMsg)
	}

	return nil
}
