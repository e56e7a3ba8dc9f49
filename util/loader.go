package util

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/nvr-ai/go-motion/common"
	"github.com/pkg/errors"
)

// ImageFile represents an image file.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Data is the raw bytes of the image file.
	Data []byte
	// Frame is the frame number of the image file.
	Frame int
}

// imageExtensions lists the file types decoded by DirectorySource.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
}

// frameNumber extracts N from "frame-N.ext". ok is false for any other name.
func frameNumber(name string) (int, bool) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	digits, found := strings.CutPrefix(stem, "frame-")
	if !found {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// LoadDirectoryImageFiles reads all image files from a directory in frame
// order.
//
// Files named "frame-N.ext" are ordered by N. Any other image file is
// ordered by name after the numbered frames.
//
// Arguments:
// - dir: Directory path containing image files.
//
// Returns:
// - []ImageFile: Slice of ImageFile, each containing the raw bytes of an image file.
// - error: An input error if the directory or a file cannot be read.
func LoadDirectoryImageFiles(dir string) ([]ImageFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, common.InputError("read frame directory %s: %v", dir, err)
	}

	var numbered, named []ImageFile
	for _, entry := range entries {
		if entry.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(common.ErrInput, "read frame %s: %v", path, err)
		}

		if n, ok := frameNumber(entry.Name()); ok {
			numbered = append(numbered, ImageFile{Path: path, Data: data, Frame: n})
		} else {
			named = append(named, ImageFile{Path: path, Data: data})
		}
	}

	sort.SliceStable(numbered, func(i, j int) bool {
		return numbered[i].Frame < numbered[j].Frame
	})
	sort.Slice(named, func(i, j int) bool {
		return named[i].Path < named[j].Path
	})

	next := 0
	if len(numbered) > 0 {
		next = numbered[len(numbered)-1].Frame + 1
	}
	for i := range named {
		named[i].Frame = next + i
	}

	return append(numbered, named...), nil
}
