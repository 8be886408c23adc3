// Package assets discovers and uploads a project's static assets to the
// content store.
//
// Discovery and upload are decoupled: Discover produces the eligible file
// set, Syncer fans the uploads out. This keeps traversal-and-filtering
// testable without a store.
package assets

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// archiveSuffix is the one non-image eligible extension.
const archiveSuffix = ".tar.gz"

// imageExtensions is the allow-list of uploadable image formats.
var imageExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".svg":  {},
	".webp": {},
}

// Asset is one discovered file: its absolute path and its store key suffix.
// Keys use forward slashes regardless of host path convention.
type Asset struct {
	Path string
	Key  string
}

// Eligible reports whether the file name is on the upload allow-list.
func Eligible(name string) bool {
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, archiveSuffix) {
		return true
	}
	_, ok := imageExtensions[filepath.Ext(lower)]
	return ok
}

// Discover walks root and returns the eligible assets in lexical order.
// The dependency directory and dot directories (CI metadata lives there)
// are skipped entirely. The walk is restartable: Discover holds no state.
func Discover(root, depDir string) ([]Asset, error) {
	var found []Asset
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			if d.Name() == depDir || strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !Eligible(d.Name()) {
			return nil
		}

		found = append(found, Asset{Path: path, Key: filepath.ToSlash(rel)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// ContentTypeFor returns the upload content type for a store key.
func ContentTypeFor(key string) string {
	lower := strings.ToLower(key)
	if strings.HasSuffix(lower, archiveSuffix) {
		return "application/gzip"
	}
	switch filepath.Ext(lower) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".svg":
		return "image/svg+xml"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
