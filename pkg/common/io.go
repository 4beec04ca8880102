package common

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

func FileExists(filePath string) (bool, error) {
	info, err := os.Stat(filePath)
	if err == nil {
		return !info.IsDir(), nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func DirectoryExists(dirPath string) (bool, error) {
	info, err := os.Stat(dirPath)
	if err == nil {
		return info.IsDir(), nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Deletes the file if it exists. Returns true if a file was deleted.
func DeleteIfExists(filePath string) (bool, error) {
	exists, err := FileExists(filePath)
	if err != nil || !exists {
		return false, err
	}
	if err := os.Remove(filePath); err != nil {
		return false, err
	}
	return true, nil
}

// Deletes the directory with all its content if it exists. Returns true if a directory was deleted.
func DeleteDirectoryIfExists(dirPath string) (bool, error) {
	exists, err := DirectoryExists(dirPath)
	if err != nil || !exists {
		return false, err
	}
	if err := os.RemoveAll(dirPath); err != nil {
		return false, err
	}
	return true, nil
}

// Moves the file to the target path, replacing an existing file.
// Falls back to copy and delete when the paths are on different volumes.
func MoveFile(sourcePath, targetPath string) error {
	if err := os.Rename(sourcePath, targetPath); err == nil {
		return nil
	}
	if err := copyFile(sourcePath, targetPath); err != nil {
		return fmt.Errorf("failed moving '%s' to '%s': %w", sourcePath, targetPath, err)
	}
	return os.Remove(sourcePath)
}

func copyFile(sourcePath, targetPath string) error {
	source, err := os.Open(sourcePath)
	if err != nil {
		return err
	}
	defer source.Close()
	// Copy next to the target first so the final step is a rename on the same volume
	tempFile, err := os.CreateTemp(filepath.Dir(targetPath), "."+filepath.Base(targetPath)+"-*")
	if err != nil {
		return err
	}
	tempPath := tempFile.Name()
	if _, err := io.Copy(tempFile, source); err != nil {
		tempFile.Close()
		os.Remove(tempPath)
		return err
	}
	if err := tempFile.Close(); err != nil {
		os.Remove(tempPath)
		return err
	}
	if err := os.Rename(tempPath, targetPath); err != nil {
		os.Remove(tempPath)
		return err
	}
	return nil
}

// Writes the data to a temporary file in the same directory and renames it over the target.
func WriteFileAtomic(filePath string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("error creating the directory for file '%s': %w", filePath, err)
	}
	tempFile, err := os.CreateTemp(dir, "."+filepath.Base(filePath)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("error creating a temporary file for '%s': %w", filePath, err)
	}
	tempPath := tempFile.Name()
	cleanup := func() {
		tempFile.Close()
		os.Remove(tempPath)
	}
	if _, err := tempFile.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("error writing the temporary file for '%s': %w", filePath, err)
	}
	if err := tempFile.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("error syncing the temporary file for '%s': %w", filePath, err)
	}
	if err := tempFile.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("error closing the temporary file for '%s': %w", filePath, err)
	}
	if err := os.Chmod(tempPath, perm); err != nil {
		os.Remove(tempPath)
		return err
	}
	if err := os.Rename(tempPath, filePath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("error replacing the file '%s': %w", filePath, err)
	}
	return nil
}

// Checks if the given filePath matches at least one of the given patterns.
func FilePathMatchesPattern(filePath string, patterns ...string) (bool, error) {
	if patterns == nil {
		return true, nil
	}
	for _, pattern := range patterns {
		isMatch, err := doublestar.Match(filepath.ToSlash(pattern), filepath.ToSlash(filePath))
		if err != nil {
			return false, err
		}
		if isMatch {
			return true, nil
		}
	}
	return false, nil
}

// Searches all files below the root path matching one of the patterns. The patterns are relative to the root path.
func SearchFiles(rootPath string, matchPatterns []string, ignorePatterns []string) ([]string, error) {
	matchedFiles := []string{}
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		relativePath, err := filepath.Rel(rootPath, path)
		if err != nil {
			return err
		}
		// Check if the path is in the ignore list and skip it
		for _, ignorePattern := range ignorePatterns {
			isMatch, err := FilePathMatchesPattern(relativePath, ignorePattern)
			if err != nil {
				return err
			}
			if isMatch {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}
		// Continue on folders
		if d.IsDir() {
			return nil
		}
		// Check if the file matches
		isMatch, err := FilePathMatchesPattern(relativePath, matchPatterns...)
		if err != nil {
			return err
		}
		if isMatch {
			matchedFiles = append(matchedFiles, path)
		}
		return nil
	})
	return matchedFiles, err
}
