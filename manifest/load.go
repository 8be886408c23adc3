// Package manifest loads release metadata from a project root and assembles
// the per-language locale bundle for a publish request.
//
// Three inputs contribute to the release descriptor:
//   - release.yaml: the structured descriptor file (required)
//   - README.<lang>.md: localized long descriptions, one file per language
//   - changelog.yaml: sidecar release notes, version -> language -> text
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pithecene-io/stevedore/types"
)

// Well-known file names within the project root.
const (
	DescriptorFileName = "release.yaml"
	ChangelogFileName  = "changelog.yaml"

	readmePrefix = "README."
	readmeSuffix = ".md"
)

// Load reads the release descriptor from root and normalizes it.
// Localized readme files override inline description entries for their
// language. The sidecar changelog is returned separately so the locale
// assembler can apply it with last-writer-wins semantics.
func Load(root string) (*types.ReleaseDescriptor, map[string]map[string]string, error) {
	data, err := os.ReadFile(filepath.Join(root, DescriptorFileName))
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", DescriptorFileName, err)
	}

	var desc types.ReleaseDescriptor
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return nil, nil, fmt.Errorf("invalid YAML in %s: %w", DescriptorFileName, err)
	}

	if desc.ID == "" {
		return nil, nil, fmt.Errorf("%s: id is required", DescriptorFileName)
	}
	if desc.Version == "" {
		return nil, nil, fmt.Errorf("%s: version is required", DescriptorFileName)
	}

	if err := mergeReadmes(root, &desc); err != nil {
		return nil, nil, err
	}

	sidecar, err := loadSidecarChangelog(root)
	if err != nil {
		return nil, nil, err
	}

	return &desc, sidecar, nil
}

// mergeReadmes scans root for README.<lang>.md files and stores their
// contents as the description for that language. A readme file wins over an
// inline description entry for the same language.
func mergeReadmes(root string, desc *types.ReleaseDescriptor) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("read project root: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		lang, ok := readmeLanguage(entry.Name())
		if !ok {
			continue
		}
		data, err := os.ReadFile(filepath.Join(root, entry.Name()))
		if err != nil {
			return fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		if desc.Description == nil {
			desc.Description = make(map[string]string)
		}
		desc.Description[lang] = strings.TrimSpace(string(data))
	}
	return nil
}

// readmeLanguage extracts the language code from a localized readme file
// name (README.<lang>.md). A bare README.md carries no language and is
// skipped.
func readmeLanguage(name string) (string, bool) {
	// A bare README.md satisfies both affix checks with the same "md", so
	// the name must be strictly longer than prefix plus suffix.
	if len(name) <= len(readmePrefix)+len(readmeSuffix) {
		return "", false
	}
	if !strings.HasPrefix(name, readmePrefix) || !strings.HasSuffix(name, readmeSuffix) {
		return "", false
	}
	return name[len(readmePrefix) : len(name)-len(readmeSuffix)], true
}

// loadSidecarChangelog reads the optional changelog.yaml sidecar.
// Absence is not an error; the result is nil.
func loadSidecarChangelog(root string) (map[string]map[string]string, error) {
	data, err := os.ReadFile(filepath.Join(root, ChangelogFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", ChangelogFileName, err)
	}

	var sidecar map[string]map[string]string
	if err := yaml.Unmarshal(data, &sidecar); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", ChangelogFileName, err)
	}
	return sidecar, nil
}
