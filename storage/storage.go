// Package storage archives fetched page HTML on the filesystem so a saved
// link's source can be revisited after the live page changes or disappears.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/linkstash/linkstash/slug"
)

// Config contains storage configuration.
type Config struct {
	BasePath string // Base directory for all archived files
}

// Archive handles filesystem archival of fetched pages.
type Archive struct {
	config Config
}

// New creates an Archive rooted at the configured base path.
func New(config Config) (*Archive, error) {
	if err := os.MkdirAll(config.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base storage directory: %w", err)
	}
	return &Archive{config: config}, nil
}

// SaveHTML writes page HTML under pages/YYYY/MM and returns the path
// relative to the base directory. Name collisions get a numeric suffix.
func (a *Archive) SaveHTML(data []byte, name string) (string, error) {
	now := time.Now()
	dirPath := filepath.Join(a.config.BasePath, "pages",
		fmt.Sprintf("%04d", now.Year()), fmt.Sprintf("%02d", int(now.Month())))

	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	base := slug.GenerateWithFallback(name, "page")

	filename := base + ".html"
	filePath := filepath.Join(dirPath, filename)
	counter := 1
	for fileExists(filePath) {
		filename = fmt.Sprintf("%s-%d.html", base, counter)
		filePath = filepath.Join(dirPath, filename)
		counter++
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write archive file: %w", err)
	}

	relPath, err := filepath.Rel(a.config.BasePath, filePath)
	if err != nil {
		return filePath, nil
	}
	return relPath, nil
}

// ReadHTML reads an archived page by its relative path.
func (a *Archive) ReadHTML(relPath string) ([]byte, error) {
	fullPath := filepath.Join(a.config.BasePath, relPath)

	// Keep reads inside the base directory.
	cleanBase, err := filepath.Abs(a.config.BasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base path: %w", err)
	}
	cleanFull, err := filepath.Abs(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve file path: %w", err)
	}
	if !strings.HasPrefix(cleanFull, cleanBase+string(filepath.Separator)) {
		return nil, fmt.Errorf("path escapes storage directory: %s", relPath)
	}

	data, err := os.ReadFile(cleanFull)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive file: %w", err)
	}
	return data, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
