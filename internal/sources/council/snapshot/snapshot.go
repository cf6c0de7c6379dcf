package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bakkerme/rctbc-bins/internal/core"
	"github.com/bakkerme/rctbc-bins/internal/sources/council"
)

// Config controls page capture for one address.
type Config struct {
	Snapshot bool   `json:"snapshot" yaml:"snapshot"`
	Restore  bool   `json:"restore" yaml:"restore"`
	Path     string `json:"path" yaml:"path"`
}

// Fetcher captures fetched pages to disk, or replays them instead of hitting the council site.
type Fetcher struct {
	next   council.Fetcher
	config Config
}

// Wrap returns next unchanged when cfg is nil or disabled.
func Wrap(next council.Fetcher, cfg *Config) council.Fetcher {
	if next == nil {
		return nil
	}
	if cfg == nil || (!cfg.Snapshot && !cfg.Restore) {
		return next
	}
	return &Fetcher{next: next, config: *cfg}
}

func (f *Fetcher) Fetch(ctx context.Context, address core.AddressKey) ([]byte, error) {
	if f.config.Restore {
		body, err := Load(f.config.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: restore snapshot: %v", core.ErrFetch, err)
		}
		return body, nil
	}

	body, err := f.next.Fetch(ctx, address)
	if err != nil {
		return nil, err
	}
	if f.config.Snapshot {
		if err := Save(f.config.Path, body); err != nil {
			core.LoggerFromContext(ctx, nil).Warn("failed to save page snapshot", "path", f.config.Path, "error", err)
		}
	}
	return body, nil
}

func Save(path string, body []byte) error {
	if path == "" {
		return fmt.Errorf("snapshot path is required")
	}
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot directory: %w", err)
		}
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

func Load(path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("snapshot path is required")
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return body, nil
}
