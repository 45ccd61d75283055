// Package index resolves package-index names to URLs.
package index

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/su1ph3r/indexauth/pkg/types"
)

// Common errors
var (
	ErrIndexNotFound = errors.New("no index found")
	ErrInvalidIndex  = errors.New("invalid index")
)

// Index is a named package index.
type Index struct {
	Name string
	URL  *url.URL
}

// New validates rawURL and returns the index.
func New(name, rawURL string) (Index, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Index{}, fmt.Errorf("%w: empty name", ErrInvalidIndex)
	}

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return Index{}, fmt.Errorf("%w %q: %v", ErrInvalidIndex, name, err)
	}
	if !u.IsAbs() || u.Hostname() == "" {
		return Index{}, fmt.Errorf("%w %q: url must be absolute with a host", ErrInvalidIndex, name)
	}
	if _, ok := u.User.Password(); ok {
		return Index{}, fmt.Errorf("%w %q: url must not embed a password", ErrInvalidIndex, name)
	}

	return Index{Name: name, URL: u}, nil
}

// Parse reads an index from "name=url".
func Parse(spec string) (Index, error) {
	name, rawURL, ok := strings.Cut(spec, "=")
	if !ok {
		return Index{}, fmt.Errorf("%w %q: expected name=url", ErrInvalidIndex, spec)
	}
	return New(name, rawURL)
}

// List is an ordered set of indexes.
type List []Index

// FromSettings converts configured indexes.
func FromSettings(settings []types.IndexSettings) (List, error) {
	list := make(List, 0, len(settings))
	for _, s := range settings {
		idx, err := New(s.Name, s.URL)
		if err != nil {
			return nil, err
		}
		list = append(list, idx)
	}
	return list, nil
}

// ParseAll reads every "name=url" spec.
func ParseAll(specs []string) (List, error) {
	list := make(List, 0, len(specs))
	for _, spec := range specs {
		idx, err := Parse(spec)
		if err != nil {
			return nil, err
		}
		list = append(list, idx)
	}
	return list, nil
}

// Find returns the index called name.
func (l List) Find(name string) (Index, error) {
	for _, idx := range l {
		if idx.Name == name {
			return idx, nil
		}
	}
	return Index{}, fmt.Errorf("%w with the name %q", ErrIndexNotFound, name)
}

// Merge returns l with overrides applied: an override replaces the entry
// of the same name in place, new names are appended.
func (l List) Merge(overrides List) List {
	merged := make(List, len(l), len(l)+len(overrides))
	copy(merged, l)

	for _, o := range overrides {
		replaced := false
		for i := range merged {
			if merged[i].Name == o.Name {
				merged[i] = o
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, o)
		}
	}
	return merged
}
