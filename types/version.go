package types

// Version is the canonical project version.
// The CLI and the publish request envelope share this version.
const Version = "0.3.0"

// LatestAlias is the fixed version alias used when archiving with --latest.
// The archive is named {id}-latest.tar.gz instead of {id}-{version}.tar.gz.
const LatestAlias = "latest"
