// Package archive packages a project tree into a versioned tar.gz and
// computes its content fingerprint.
//
// The fingerprint is taken over the produced archive file, not the source
// tree, so the published hash matches exactly what a client will fetch.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pithecene-io/stevedore/iox"
	"github.com/pithecene-io/stevedore/types"
)

// Sentinel errors for archive failure classification.
var (
	// ErrPackaging indicates the project root was unreadable or the
	// archive could not be created. Fatal to the invocation.
	ErrPackaging = errors.New("packaging failed")

	// ErrHash indicates the produced archive could not be re-read for
	// fingerprinting. Fatal to the invocation.
	ErrHash = errors.New("fingerprint failed")
)

// Options controls archive naming and exclusion.
type Options struct {
	// Latest replaces the version in the archive name with the fixed
	// "latest" alias.
	Latest bool
	// DependencyDir is the directory segment reserved for third-party
	// dependencies; its subtree is never archived.
	DependencyDir string
}

// FileName returns the archive name for the descriptor under opts.
func FileName(desc *types.ReleaseDescriptor, opts Options) string {
	version := desc.Version
	if opts.Latest {
		version = types.LatestAlias
	}
	return fmt.Sprintf("%s-%s.tar.gz", desc.ID, version)
}

// Build packages the project at root into {id}-{version|latest}.tar.gz
// written to the root, then fingerprints the produced file.
//
// Exclusions: the dependency directory's subtree, dotfiles and dot
// directories outside it, and the archive's own output file. A failed build
// removes the partial archive before returning.
func Build(root string, desc *types.ReleaseDescriptor, opts Options) (*types.ArchiveResult, error) {
	fileName := FileName(desc, opts)
	outPath := filepath.Join(root, fileName)

	if err := writeArchive(root, outPath, fileName, opts.DependencyDir); err != nil {
		// No partial archive is left referenced.
		_ = os.Remove(outPath)
		return nil, fmt.Errorf("%w: %v", ErrPackaging, err)
	}

	hash, size, err := fingerprint(outPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHash, err)
	}

	return &types.ArchiveResult{
		ContentHash: hash,
		FileName:    fileName,
		Bytes:       size,
	}, nil
}

// writeArchive streams the eligible project files into a gzipped tar at outPath.
func writeArchive(root, outPath, fileName, depDir string) error {
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer iox.DiscardClose(out)

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
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

		base := d.Name()
		if d.IsDir() {
			if base == depDir || strings.HasPrefix(base, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		// Self-exclusion: the output file is being written during the walk.
		if rel == fileName {
			return nil
		}
		if strings.HasPrefix(base, ".") {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		return addFile(tw, path, rel)
	})
	if err != nil {
		return err
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("finalize tar: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("finalize gzip: %w", err)
	}
	return out.Close()
}

// addFile writes a single regular file into the tar stream.
// Tar names use forward slashes regardless of host path convention.
func addFile(tw *tar.Writer, path, rel string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = filepath.ToSlash(rel)

	if err := tw.WriteHeader(header); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer iox.DiscardClose(f)

	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("archive %s: %w", rel, err)
	}
	return nil
}

// fingerprint computes the hex SHA-256 of the archive file by streaming it
// in chunks, and reports its size.
func fingerprint(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer iox.DiscardClose(f)

	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), size, nil
}
