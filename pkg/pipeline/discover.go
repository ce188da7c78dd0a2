package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoFirmware is returned when no firmware image matches a definition.
var ErrNoFirmware = errors.New("no matching firmware found")

// FirmwareExts lists the extensions recognized as firmware images.
var FirmwareExts = []string{".bin", ".ori", ".mod"}

// FindMatchingFirmware looks for a firmware image next to a definition. A
// directory holding exactly one image returns it. Otherwise the first image
// (in name order) whose stem contains the definition stem, or is contained by
// it, is returned. Matching ignores case.
func FindMatchingFirmware(defPath string) (string, error) {
	dir := filepath.Dir(defPath)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var images []string
	for _, e := range entries {
		if e.IsDir() || !isFirmware(e.Name()) {
			continue
		}
		images = append(images, e.Name())
	}
	sort.Strings(images)

	if len(images) == 1 {
		return filepath.Join(dir, images[0]), nil
	}
	want := strings.ToLower(stem(defPath))
	for _, name := range images {
		have := strings.ToLower(stem(name))
		if have == "" || want == "" {
			continue
		}
		if strings.Contains(have, want) || strings.Contains(want, have) {
			return filepath.Join(dir, name), nil
		}
	}
	return "", fmt.Errorf("%w for %s", ErrNoFirmware, defPath)
}

func isFirmware(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range FirmwareExts {
		if ext == e {
			return true
		}
	}
	return false
}
