// Package categories holds the keyword category store and the categorizer
// that consults it, asking the operator when no keyword matches.
package categories

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Category is a named, ordered keyword list.
type Category struct {
	Name     string
	Keywords []string
}

// Store maps category names to keyword lists, preserving file order. It is
// not safe for concurrent use; one run owns one Store.
type Store struct {
	path       string
	categories []*Category
	byName     map[string]*Category
}

// New creates an in-memory Store. Save is a no-op until a path is set.
func New(categories ...Category) *Store {
	s := &Store{byName: make(map[string]*Category)}
	for _, c := range categories {
		s.put(c.Name, c.Keywords)
	}
	return s
}

// put appends a category or merges keywords into an existing one.
func (s *Store) put(name string, keywords []string) {
	c, ok := s.byName[name]
	if !ok {
		c = &Category{Name: name, Keywords: []string{}}
		s.categories = append(s.categories, c)
		s.byName[name] = c
	}
	for _, kw := range keywords {
		if !containsFold(c.Keywords, kw) {
			c.Keywords = append(c.Keywords, kw)
		}
	}
}

// Load reads a store from a JSON or YAML file (chosen by extension).
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &PersistenceError{Path: path, Op: "load", Err: err}
	}

	s := New()
	if isYAML(path) {
		err = yaml.Unmarshal(data, s)
	} else {
		err = json.Unmarshal(data, s)
	}
	if err != nil {
		return nil, &PersistenceError{Path: path, Op: "load", Err: err}
	}
	s.path = path
	return s, nil
}

// Path returns the file the store persists to.
func (s *Store) Path() string { return s.path }

// SetPath sets the file the store persists to.
func (s *Store) SetPath(path string) { s.path = path }

// Save rewrites the whole store file. The write goes through a temp file
// and rename so a failed save never truncates the existing store.
func (s *Store) Save() error {
	if s.path == "" {
		return nil
	}

	data, err := s.encode()
	if err != nil {
		return &PersistenceError{Path: s.path, Op: "save", Err: err}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &PersistenceError{Path: s.path, Op: "save", Err: err}
	}
	tmp, err := os.CreateTemp(dir, ".categories-*")
	if err != nil {
		return &PersistenceError{Path: s.path, Op: "save", Err: err}
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &PersistenceError{Path: s.path, Op: "save", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &PersistenceError{Path: s.path, Op: "save", Err: err}
	}
	mode := os.FileMode(0o644)
	if fi, err := os.Stat(s.path); err == nil {
		mode = fi.Mode().Perm()
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		return &PersistenceError{Path: s.path, Op: "save", Err: err}
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return &PersistenceError{Path: s.path, Op: "save", Err: err}
	}
	return nil
}

func (s *Store) encode() ([]byte, error) {
	if isYAML(s.path) {
		return yaml.Marshal(s)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Names returns category names in store order.
func (s *Store) Names() []string {
	names := make([]string, len(s.categories))
	for i, c := range s.categories {
		names[i] = c.Name
	}
	return names
}

// Len returns the number of categories.
func (s *Store) Len() int { return len(s.categories) }

// Has reports whether a category exists.
func (s *Store) Has(name string) bool {
	_, ok := s.byName[name]
	return ok
}

// Keywords returns a copy of a category's keywords.
func (s *Store) Keywords(name string) ([]string, bool) {
	c, ok := s.byName[name]
	if !ok {
		return nil, false
	}
	return append([]string{}, c.Keywords...), true
}

// Categories returns a deep copy of the store contents in order.
func (s *Store) Categories() []Category {
	out := make([]Category, len(s.categories))
	for i, c := range s.categories {
		out[i] = Category{Name: c.Name, Keywords: append([]string{}, c.Keywords...)}
	}
	return out
}

// Match returns the first category, in store order, that has a keyword
// contained in description. Matching is case-insensitive; blank keywords
// never match.
func (s *Store) Match(description string) (string, bool) {
	desc := strings.ToLower(description)
	for _, c := range s.categories {
		if matchesAny(desc, c.Keywords) {
			return c.Name, true
		}
	}
	return "", false
}

// Matches returns every category with a keyword contained in description,
// in store order.
func (s *Store) Matches(description string) []string {
	desc := strings.ToLower(description)
	var out []string
	for _, c := range s.categories {
		if matchesAny(desc, c.Keywords) {
			out = append(out, c.Name)
		}
	}
	return out
}

func matchesAny(lowerDesc string, keywords []string) bool {
	for _, kw := range keywords {
		k := strings.ToLower(strings.TrimSpace(kw))
		if k != "" && strings.Contains(lowerDesc, k) {
			return true
		}
	}
	return false
}

// Learn appends keyword to category unless an equal keyword (ignoring case)
// is already present, and persists the store when it changed.
func (s *Store) Learn(category, keyword string) (bool, error) {
	kw := strings.TrimSpace(keyword)
	if kw == "" {
		return false, ErrEmptyKeyword
	}
	c, ok := s.byName[category]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	if containsFold(c.Keywords, kw) {
		return false, nil
	}

	c.Keywords = append(c.Keywords, kw)
	if err := s.Save(); err != nil {
		c.Keywords = c.Keywords[:len(c.Keywords)-1]
		return false, err
	}
	return true, nil
}

// AddCategory appends an empty category and persists the store. Adding an
// existing category is a no-op.
func (s *Store) AddCategory(name string) (bool, error) {
	n := strings.TrimSpace(name)
	if n == "" {
		return false, ErrEmptyCategory
	}
	if s.Has(n) {
		return false, nil
	}

	s.put(n, nil)
	if err := s.Save(); err != nil {
		s.categories = s.categories[:len(s.categories)-1]
		delete(s.byName, n)
		return false, err
	}
	return true, nil
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), strings.TrimSpace(v)) {
			return true
		}
	}
	return false
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
