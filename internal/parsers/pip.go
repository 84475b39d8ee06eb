package parsers

import (
	"bufio"
	"bytes"
	"strings"
)

// maxLineSize bounds a single line of pip output. Long Description fields
// in `pip show --verbose` can exceed bufio's 64KiB default.
const maxLineSize = 1024 * 1024

// PipFreezeParser parses `pip freeze` output
type PipFreezeParser struct{}

// ParseList extracts name==version pins. Lines without "==" (editable
// installs, "name @ url" references, comments) are skipped.
func (p *PipFreezeParser) ParseList(content []byte) ([]Package, error) {
	var pkgs []Package

	err := scanLines(content, func(line string) {
		name, version, ok := strings.Cut(line, "==")
		if !ok {
			return
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		pkgs = append(pkgs, Package{
			Name:    name,
			Version: strings.TrimSpace(version),
		})
	})
	if err != nil {
		return nil, err
	}

	return pkgs, nil
}

// PipShowParser parses `pip show <name>` output
type PipShowParser struct{}

// ParseMetadata reads the License and Home-page fields. Keys match
// case-insensitively; the first License line wins and the last Home-page
// line wins. Both fields are collected in a single pass regardless of the
// order they appear in.
func (p *PipShowParser) ParseMetadata(content []byte) (Metadata, error) {
	var md Metadata

	err := scanLines(content, func(line string) {
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "license:"):
			if !md.HasLicense {
				md.License = fieldValue(line)
				md.HasLicense = true
			}
		case strings.HasPrefix(lower, "home-page:"):
			md.Homepage = fieldValue(line)
			md.HasHomepage = true
		}
	})
	if err != nil {
		return Metadata{}, err
	}

	return md, nil
}

// fieldValue returns the trimmed text after the first colon
func fieldValue(line string) string {
	_, value, _ := strings.Cut(line, ":")
	return strings.TrimSpace(value)
}

func scanLines(content []byte, fn func(line string)) error {
	sc := bufio.NewScanner(bytes.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		fn(strings.TrimRight(sc.Text(), "\r"))
	}
	return sc.Err()
}
