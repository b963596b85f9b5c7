// Package archive disposes of statement files once their transactions have
// been delivered.
package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/pennywise-dev/pennywise/internal/config"
)

// Archiver handles one consumed statement file from bankDir.
type Archiver interface {
	Archive(ctx context.Context, bankDir, file string) error
}

// New builds the archiver for cfg.Mode. Close the returned closer when done.
func New(ctx context.Context, cfg config.ArchiveConfig, opts ...option.ClientOption) (Archiver, io.Closer, error) {
	switch cfg.Mode {
	case "", config.ArchiveNone:
		return Nop{}, noClose{}, nil
	case config.ArchiveMove:
		return &Mover{Subdir: cfg.Dir}, noClose{}, nil
	case config.ArchiveDelete:
		return Remover{}, noClose{}, nil
	case config.ArchiveGCS:
		g, err := NewGCS(ctx, cfg.Bucket, cfg.Prefix, opts...)
		if err != nil {
			return nil, nil, err
		}
		return g, g, nil
	}
	return nil, nil, fmt.Errorf("unknown archive mode %q", cfg.Mode)
}

type noClose struct{}

func (noClose) Close() error { return nil }

// Nop leaves files in place.
type Nop struct{}

func (Nop) Archive(context.Context, string, string) error { return nil }

// Mover moves files into a subdirectory of their bank directory.
type Mover struct {
	Subdir string
}

// Archive moves file to <bankDir>/<Subdir>/. An existing file of the same
// name is never overwritten; a numeric suffix is added instead.
func (m *Mover) Archive(_ context.Context, bankDir, file string) error {
	dstDir := filepath.Join(bankDir, m.Subdir)
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	name := filepath.Base(file)
	dst := filepath.Join(dstDir, name)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		if _, err := os.Stat(dst); os.IsNotExist(err) {
			break
		}
		dst = filepath.Join(dstDir, fmt.Sprintf("%s-%d%s", stem, i, ext))
	}

	if err := os.Rename(file, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", name, err)
	}
	return nil
}

// Remover deletes files.
type Remover struct{}

func (Remover) Archive(_ context.Context, _, file string) error {
	if err := os.Remove(file); err != nil {
		return fmt.Errorf("deleting %s: %w", filepath.Base(file), err)
	}
	return nil
}

// GCS uploads files to a Cloud Storage bucket and then deletes the local
// copy. Objects are named <prefix><bank dir name>/<file name>.
type GCS struct {
	bucket string
	prefix string
	client *storage.Client

	put func(ctx context.Context, object string, r io.Reader) error
}

// NewGCS creates a storage client using Application Default Credentials
// unless opts say otherwise.
func NewGCS(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (*GCS, error) {
	if bucket == "" {
		return nil, fmt.Errorf("archive bucket is empty")
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	g := &GCS{bucket: bucket, prefix: prefix, client: client}
	g.put = g.upload
	return g, nil
}

// ObjectName returns the object a file from bankDir is stored under.
func (g *GCS) ObjectName(bankDir, file string) string {
	return g.prefix + path.Join(filepath.Base(bankDir), filepath.Base(file))
}

func (g *GCS) Archive(ctx context.Context, bankDir, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("open file %q: %w", file, err)
	}
	object := g.ObjectName(bankDir, file)
	err = g.put(ctx, object, f)
	f.Close()
	if err != nil {
		return fmt.Errorf("uploading %s to gs://%s/%s: %w", filepath.Base(file), g.bucket, object, err)
	}

	if err := os.Remove(file); err != nil {
		return fmt.Errorf("deleting %s after upload: %w", filepath.Base(file), err)
	}
	return nil
}

func (g *GCS) upload(ctx context.Context, object string, r io.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := g.client.Bucket(g.bucket).Object(object).NewWriter(ctx)
	w.ContentType = "text/csv"
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("copy file to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload: %w", err)
	}
	return nil
}

// Close releases the storage client.
func (g *GCS) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}
