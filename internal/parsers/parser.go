package parsers

// Package is one entry of a package manager's installed-package listing
type Package struct {
	Name    string
	Version string
}

// Metadata holds the fields extracted from a package manager's
// per-package metadata output
type Metadata struct {
	License     string
	HasLicense  bool
	Homepage    string
	HasHomepage bool
}

// ListParser parses the output of a "list installed packages" command
type ListParser interface {
	ParseList(content []byte) ([]Package, error)
}

// MetadataParser parses the output of a "show package metadata" command
type MetadataParser interface {
	ParseMetadata(content []byte) (Metadata, error)
}
