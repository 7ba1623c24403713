// Package nuget builds NuGet package metadata: nuspec manifests, runtime
// graphs and package file names.
package nuget

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"os"

	"github.com/goplus/sdlpack/internal/version"
)

// Namespace is the nuspec schema namespace.
const Namespace = "http://schemas.microsoft.com/packaging/2013/05/nuspec.xsd"

var ErrIncomplete = errors.New("incomplete manifest")

// Manifest is the root <package> element of a .nuspec file.
type Manifest struct {
	XMLName  xml.Name `xml:"package"`
	Xmlns    string   `xml:"xmlns,attr"`
	Metadata Metadata `xml:"metadata"`
}

type Metadata struct {
	ID           string        `xml:"id"`
	Version      string        `xml:"version"`
	Authors      string        `xml:"authors"`
	License      License       `xml:"license"`
	ProjectURL   string        `xml:"projectUrl,omitempty"`
	Description  string        `xml:"description"`
	Copyright    string        `xml:"copyright,omitempty"`
	Repository   *Repository   `xml:"repository,omitempty"`
	Dependencies *Dependencies `xml:"dependencies,omitempty"`
}

// License holds an SPDX expression.
type License struct {
	Type       string `xml:"type,attr"`
	Expression string `xml:",chardata"`
}

type Repository struct {
	Type   string `xml:"type,attr"`
	URL    string `xml:"url,attr"`
	Commit string `xml:"commit,attr,omitempty"`
}

type Dependencies struct {
	Groups []Group `xml:"group"`
}

// Group is a dependency group keyed by target framework moniker.
type Group struct {
	TargetFramework string       `xml:"targetFramework,attr"`
	Dependencies    []Dependency `xml:"dependency"`
}

type Dependency struct {
	ID      string `xml:"id,attr"`
	Version string `xml:"version,attr"`
}

// NewManifest returns a manifest with the namespace and license type set.
func NewManifest(id, ver string) *Manifest {
	return &Manifest{
		Xmlns: Namespace,
		Metadata: Metadata{
			ID:      id,
			Version: ver,
			License: License{Type: "expression"},
		},
	}
}

// SetRepository records a git repository, optionally pinned to commit.
func (m *Manifest) SetRepository(url, commit string) {
	if url == "" {
		m.Metadata.Repository = nil
		return
	}
	m.Metadata.Repository = &Repository{Type: "git", URL: url, Commit: commit}
}

// AddGroup appends a dependency group for tfm.
func (m *Manifest) AddGroup(tfm string, deps ...Dependency) {
	if m.Metadata.Dependencies == nil {
		m.Metadata.Dependencies = &Dependencies{}
	}
	m.Metadata.Dependencies.Groups = append(m.Metadata.Dependencies.Groups, Group{
		TargetFramework: tfm,
		Dependencies:    deps,
	})
}

// Validate reports missing required metadata.
func (m *Manifest) Validate() error {
	md := m.Metadata
	switch {
	case md.ID == "":
		return fmt.Errorf("%w: id", ErrIncomplete)
	case md.Authors == "":
		return fmt.Errorf("%w: authors", ErrIncomplete)
	case md.Description == "":
		return fmt.Errorf("%w: description", ErrIncomplete)
	case md.License.Expression == "":
		return fmt.Errorf("%w: license", ErrIncomplete)
	}
	return version.Validate(md.Version)
}

// Marshal renders the manifest. Output depends only on the field values.
func (m *Manifest) Marshal() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// WriteFile marshals the manifest to path.
func (m *Manifest) WriteFile(path string) error {
	data, err := m.Marshal()
	if err != nil {
		return fmt.Errorf("manifest %s: %w", m.Metadata.ID, err)
	}
	return os.WriteFile(path, data, 0o644)
}
