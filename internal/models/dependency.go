package models

import "sort"

// UnknownLicense is recorded when a package's license cannot be determined
const UnknownLicense = "UNKNOWN"

// Dependency represents a single installed package and its license metadata
type Dependency struct {
	Name     string
	Version  string
	License  string
	Homepage string
	// HasHomepage is set when the metadata had a Home-page line, even one
	// with an empty value
	HasHomepage bool
}

// String returns the pinned requirement form, e.g. "requests==2.31.0"
func (d Dependency) String() string {
	return d.Name + "==" + d.Version
}

// DisplayLicense returns the license, or UNKNOWN when it is empty
func (d Dependency) DisplayLicense() string {
	return orUnknown(d.License)
}

// DisplayHomepage returns the homepage, or UNKNOWN when it is empty
func (d Dependency) DisplayHomepage() string {
	return orUnknown(d.Homepage)
}

// DisplayVersion returns the version, or UNKNOWN when it is empty
func (d Dependency) DisplayVersion() string {
	return orUnknown(d.Version)
}

func orUnknown(s string) string {
	if s == "" {
		return UnknownLicense
	}
	return s
}

// Inventory holds the dependency records of one run, keyed by package name
// and iterated in the order packages were first discovered.
type Inventory struct {
	order   []string
	records map[string]*Dependency
}

// NewInventory returns an empty inventory
func NewInventory() *Inventory {
	return &Inventory{records: make(map[string]*Dependency)}
}

// Add records a package. A name seen before keeps its original position and
// takes the new version.
func (inv *Inventory) Add(name, version string) *Dependency {
	if dep, ok := inv.records[name]; ok {
		dep.Version = version
		return dep
	}
	dep := &Dependency{Name: name, Version: version}
	inv.records[name] = dep
	inv.order = append(inv.order, name)
	return dep
}

// Get returns the record for name
func (inv *Inventory) Get(name string) (*Dependency, bool) {
	dep, ok := inv.records[name]
	return dep, ok
}

// Len returns the number of records
func (inv *Inventory) Len() int {
	return len(inv.order)
}

// Names returns package names in discovery order
func (inv *Inventory) Names() []string {
	names := make([]string, len(inv.order))
	copy(names, inv.order)
	return names
}

// Dependencies returns the records in discovery order. The pointers are
// shared with the inventory.
func (inv *Inventory) Dependencies() []*Dependency {
	deps := make([]*Dependency, 0, len(inv.order))
	for _, name := range inv.order {
		deps = append(deps, inv.records[name])
	}
	return deps
}

// UnknownCount returns how many records have no usable license
func (inv *Inventory) UnknownCount() int {
	n := 0
	for _, dep := range inv.records {
		if dep.DisplayLicense() == UnknownLicense {
			n++
		}
	}
	return n
}

// Licenses returns the distinct known licenses, sorted
func (inv *Inventory) Licenses() []string {
	seen := make(map[string]bool)
	var licenses []string
	for _, dep := range inv.records {
		l := dep.DisplayLicense()
		if l == UnknownLicense || seen[l] {
			continue
		}
		seen[l] = true
		licenses = append(licenses, l)
	}
	sort.Strings(licenses)
	return licenses
}
