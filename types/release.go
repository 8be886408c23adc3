//nolint:revive // types is a common Go package naming convention
package types

// ReleaseDescriptor is an immutable snapshot of project metadata loaded from
// the release manifest. It is created once per invocation and never mutated
// after load; localized fields are maps keyed by language code.
type ReleaseDescriptor struct {
	// ID is the registry-unique application identifier.
	ID string `json:"id" yaml:"id"`
	// Version is the semantic version being published.
	Version string `json:"version" yaml:"version"`
	// DisplayName maps language code to the localized display name.
	DisplayName map[string]string `json:"display_name,omitempty" yaml:"display_name"`
	// Summary maps language code to a short localized summary.
	Summary map[string]string `json:"summary,omitempty" yaml:"summary"`
	// Description maps language code to a long localized description.
	// Entries loaded from localized readme files land here.
	Description map[string]string `json:"description,omitempty" yaml:"description"`
	// Tags maps language code to localized search tags.
	Tags map[string][]string `json:"tags,omitempty" yaml:"tags"`
	// Categories is the set of store categories the release belongs to.
	Categories []string `json:"categories,omitempty" yaml:"categories"`
	// MinPlatform is the lowest platform version the release supports.
	MinPlatform string `json:"min_platform,omitempty" yaml:"min_platform"`
	// TargetPlatform is the platform version the release was built against.
	TargetPlatform string `json:"target_platform,omitempty" yaml:"target_platform"`
	// Author identifies the publishing developer or organization.
	Author string `json:"author,omitempty" yaml:"author"`
	// Homepage is the project homepage URL.
	Homepage string `json:"homepage,omitempty" yaml:"homepage"`
	// Permissions lists the runtime permissions the release requests.
	Permissions []string `json:"permissions,omitempty" yaml:"permissions"`
	// Changelog maps version to language to release notes text.
	Changelog map[string]map[string]string `json:"changelog,omitempty" yaml:"changelog"`
}

// ArchiveResult describes a produced release archive. Immutable; referenced
// by exactly one PublishRequest.
type ArchiveResult struct {
	// ContentHash is the hex-encoded SHA-256 of the archive file bytes.
	ContentHash string `json:"content_hash"`
	// FileName is the archive file name within the project root.
	FileName string `json:"file_name"`
	// Bytes is the archive size in bytes.
	Bytes int64 `json:"bytes"`
}

// LocaleEntry holds the translatable fields for a single language.
// Absent fields stay absent (omitted from serialization), never empty-string.
type LocaleEntry struct {
	Name        string            `json:"name,omitempty"`
	Description string            `json:"description,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Changelog   map[string]string `json:"changelog,omitempty"`
}

// LocaleBundle maps language code to the merged translatable fields.
type LocaleBundle map[string]*LocaleEntry

// Entry returns the locale entry for lang, creating it if absent.
func (b LocaleBundle) Entry(lang string) *LocaleEntry {
	e, ok := b[lang]
	if !ok {
		e = &LocaleEntry{}
		b[lang] = e
	}
	return e
}

// Credentials is a resolved operator credential pair.
// Resolved exactly once per invocation; the secret never appears in logs.
type Credentials struct {
	// KeyID is the access key identifier (the stored account name).
	KeyID string
	// Secret is the signing secret bound to KeyID.
	Secret string
}

// PublishApp is the application payload inside a publish request.
type PublishApp struct {
	Descriptor ReleaseDescriptor `json:"descriptor"`
	Archive    ArchiveResult     `json:"archive"`
	Locales    LocaleBundle      `json:"locales"`
}

// PublishRequest is the registry publish request body. It is assembled once
// and serialized exactly once; the same bytes are signed and transmitted.
type PublishRequest struct {
	App   PublishApp `json:"app"`
	Force bool       `json:"force"`
}
