package manifest

import "github.com/pithecene-io/stevedore/types"

// AssembleLocales merges the descriptor's localized fields into a single
// language-keyed bundle. Sources are processed in a fixed precedence order:
// display name, summary, description, tags, inline changelog, sidecar
// changelog. Within a language, a later source overwrites an earlier one for
// the same field, so a description entry wins over a summary entry.
//
// Absent sources are skipped; a descriptor with no localization yields an
// empty bundle. There are no failure modes.
func AssembleLocales(desc *types.ReleaseDescriptor, sidecar map[string]map[string]string) types.LocaleBundle {
	bundle := make(types.LocaleBundle)

	for lang, name := range desc.DisplayName {
		bundle.Entry(lang).Name = name
	}
	// Summary seeds the description field; a real description overwrites it below.
	for lang, summary := range desc.Summary {
		bundle.Entry(lang).Description = summary
	}
	for lang, description := range desc.Description {
		bundle.Entry(lang).Description = description
	}
	for lang, tags := range desc.Tags {
		bundle.Entry(lang).Tags = tags
	}

	mergeChangelog(bundle, desc.Changelog)
	mergeChangelog(bundle, sidecar)

	return bundle
}

// mergeChangelog flattens a version -> language -> text structure into each
// language's changelog sub-map keyed by version.
func mergeChangelog(bundle types.LocaleBundle, changelog map[string]map[string]string) {
	for version, byLang := range changelog {
		for lang, text := range byLang {
			entry := bundle.Entry(lang)
			if entry.Changelog == nil {
				entry.Changelog = make(map[string]string)
			}
			entry.Changelog[version] = text
		}
	}
}
