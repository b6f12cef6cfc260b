package scaffold

import (
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dyluth/setgame/internal/config"
)

//go:embed templates/*
var templatesFS embed.FS

// EnvFile is the dotenv file written next to setgame.yml.
const EnvFile = ".env"

// FileInfo represents a file to be created during initialization
type FileInfo struct {
	Path        string
	Content     []byte
	Permissions os.FileMode
}

// Initialize writes a starter setgame.yml and .env into dir.
// If force is true, existing files are replaced.
func Initialize(dir string, force bool, w io.Writer) error {
	if force {
		if err := handleForce(dir, w); err != nil {
			return err
		}
	}

	files, err := getTemplateFiles()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := writeFiles(dir, files); err != nil {
		return err
	}

	return validateCreatedFiles(dir)
}

// handleForce removes existing files if --force was specified
func handleForce(dir string, w io.Writer) error {
	for _, name := range []string{config.DefaultFile, EnvFile} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(w, "⚠️  Removing existing %s...\n", name)
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("failed to remove %s: %w", name, err)
			}
		}
	}
	return nil
}

// getTemplateFiles reads all template files
func getTemplateFiles() ([]FileInfo, error) {
	files := []FileInfo{}

	configYml, err := templatesFS.ReadFile("templates/setgame.yml.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to read setgame.yml template: %w", err)
	}
	files = append(files, FileInfo{
		Path:        config.DefaultFile,
		Content:     configYml,
		Permissions: 0644,
	})

	env, err := templatesFS.ReadFile("templates/env.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to read .env template: %w", err)
	}
	files = append(files, FileInfo{
		Path:        EnvFile,
		Content:     env,
		Permissions: 0600,
	})

	return files, nil
}

// writeFiles writes all template files to disk
func writeFiles(dir string, files []FileInfo) error {
	for _, file := range files {
		path := filepath.Join(dir, file.Path)
		if err := os.WriteFile(path, file.Content, file.Permissions); err != nil {
			return fmt.Errorf("failed to write %s: %w", file.Path, err)
		}
	}
	return nil
}

// validateCreatedFiles checks the written config loads cleanly
func validateCreatedFiles(dir string) error {
	if _, err := config.Load(filepath.Join(dir, config.DefaultFile)); err != nil {
		return fmt.Errorf("created %s is not valid: %w", config.DefaultFile, err)
	}
	return nil
}

// PrintSuccess prints the success message with created files
func PrintSuccess(w io.Writer) {
	fmt.Fprintln(w, "\n✅ Successfully initialized setgame!")
	fmt.Fprintln(w, "\nCreated:")
	fmt.Fprintf(w, "  ✓ %s\n", config.DefaultFile)
	fmt.Fprintf(w, "  ✓ %s\n", EnvFile)
	fmt.Fprintln(w, "\nNext steps:")
	fmt.Fprintf(w, "  1. Adjust players and timing in %s\n", config.DefaultFile)
	fmt.Fprintln(w, "  2. Run 'setgame play' and type '<slot>' to mark cards")
	fmt.Fprintln(w, "  3. Set events.redis_url and run 'setgame watch' in another terminal to follow along")
}
