package importer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pennywise-dev/pennywise/internal/model"
	"github.com/pennywise-dev/pennywise/internal/textenc"
)

// Adapter converts one bank's statement export into normalized fields.
type Adapter interface {
	// Bank returns the bank identifier the adapter is registered under.
	Bank() string
	// Open reads the account identity and any preamble, leaving the
	// returned Statement positioned at the first data row.
	Open(r io.Reader) (*Statement, error)
	// Fields normalizes one row. It has no side effects.
	Fields(row RawRow, account string) (model.NormalizedFields, error)
}

// Registry holds adapters keyed by bank identifier.
type Registry struct {
	adapters map[string]Adapter
	order    []string
}

// FileInfo describes a statement file in an input directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter. Panics on duplicate bank.
func (r *Registry) Register(a Adapter) {
	key := strings.ToLower(a.Bank())
	if _, ok := r.adapters[key]; ok {
		panic("duplicate bank adapter: " + key)
	}
	r.adapters[key] = a
	r.order = append(r.order, a.Bank())
}

// Get returns the adapter for bank, or nil.
func (r *Registry) Get(bank string) Adapter {
	return r.adapters[strings.ToLower(strings.TrimSpace(bank))]
}

// Lookup returns the adapter for bank or a ConfigurationError wrapping
// ErrUnsupportedBank.
func (r *Registry) Lookup(bank string) (Adapter, error) {
	if a := r.Get(bank); a != nil {
		return a, nil
	}
	return nil, &ConfigurationError{Bank: bank, Reason: "selecting adapter", Err: ErrUnsupportedBank}
}

// Banks returns the registered bank identifiers in registration order.
func (r *Registry) Banks() []string {
	return append([]string(nil), r.order...)
}

// DefaultRegistry returns a registry with all built-in adapters.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewNationwide())
	r.Register(NewNationwideCreditCard())
	r.Register(NewAmex())
	r.Register(NewStarling())
	return r
}

// Scan returns the CSV files directly inside dir, sorted by name.
func Scan(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissingInputDir, dir)
		}
		return nil, fmt.Errorf("reading input dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// OpenFile reads a statement file, decodes it to UTF-8 and opens it with a.
// It returns the detected source encoding alongside the statement.
func OpenFile(a Adapter, path string) (*Statement, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", path, err)
	}

	r, enc := textenc.NewReader(data)
	stmt, err := a.Open(r)
	if err != nil {
		return nil, enc, fmt.Errorf("opening %s as %s: %w", filepath.Base(path), a.Bank(), err)
	}
	return stmt, enc, nil
}
