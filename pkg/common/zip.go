package common

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Extracts the zip archive into the destination directory.
// Entries escaping the destination or exceeding the size limit abort the extraction.
func ExtractZip(zipPath string, destDir string) ([]string, error) {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed opening archive '%s': %w", zipPath, err)
	}
	defer reader.Close()

	cleanDest := filepath.Clean(destDir)
	extractedFiles := []string{}
	for _, entry := range reader.File {
		targetPath := filepath.Join(cleanDest, filepath.FromSlash(entry.Name))
		if targetPath != cleanDest && !strings.HasPrefix(targetPath, cleanDest+string(os.PathSeparator)) {
			return nil, fmt.Errorf("archive entry '%s' escapes the destination directory", entry.Name)
		}
		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(targetPath, os.ModePerm); err != nil {
				return nil, err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(targetPath), os.ModePerm); err != nil {
			return nil, err
		}
		if err := extractZipEntry(entry, targetPath); err != nil {
			return nil, err
		}
		extractedFiles = append(extractedFiles, targetPath)
	}
	return extractedFiles, nil
}

func extractZipEntry(entry *zip.File, targetPath string) error {
	source, err := entry.Open()
	if err != nil {
		return fmt.Errorf("failed opening archive entry '%s': %w", entry.Name, err)
	}
	defer source.Close()
	target, err := os.Create(targetPath)
	if err != nil {
		return fmt.Errorf("failed creating file '%s': %w", targetPath, err)
	}
	defer target.Close()
	// Read one byte more than allowed to detect oversized entries
	written, err := io.Copy(target, io.LimitReader(source, MAX_DEPENDENCY_FILE_BYTES+1))
	if err != nil {
		return fmt.Errorf("failed extracting archive entry '%s': %w", entry.Name, err)
	}
	if written > MAX_DEPENDENCY_FILE_BYTES {
		return fmt.Errorf("archive entry '%s' exceeds the size limit", entry.Name)
	}
	return nil
}
