// Package common keeps enums shared between configuration and processing
// packages, so neither has to import the other for them.
package common

// Layout of produced CSS text.
// ENUM(pretty, compact)
type OutputStyle int

// Kind of input source a document was loaded from.
// ENUM(file, directory, archive, url)
type SourceKind int

// Remote reports whether documents of this kind are fetched over network.
func (k SourceKind) Remote() bool {
	return k == SourceKindUrl
}
