package snapshot

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/bakkerme/rctbc-bins/internal/core"
	"github.com/bakkerme/rctbc-bins/internal/sources/council/mock"
)

func TestWrapDisabledReturnsNext(t *testing.T) {
	t.Parallel()

	next := &mock.Fetcher{}
	if got := Wrap(next, nil); got != next {
		t.Fatalf("Wrap(nil config) should return next fetcher")
	}
	if got := Wrap(next, &Config{Path: "x"}); got != next {
		t.Fatalf("Wrap(disabled config) should return next fetcher")
	}
}

func TestSnapshotThenRestore(t *testing.T) {
	t.Parallel()

	address := core.NewAddressKey("12", "CF101AB")
	path := filepath.Join(t.TempDir(), "pages", "12.html")
	next := &mock.Fetcher{BodyByAddress: map[core.AddressKey]string{address: "<strong>Monday</strong>"}}

	recording := Wrap(next, &Config{Snapshot: true, Path: path})
	if _, err := recording.Fetch(context.Background(), address); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	replaying := Wrap(&mock.Fetcher{}, &Config{Restore: true, Path: path})
	body, err := replaying.Fetch(context.Background(), address)
	if err != nil {
		t.Fatalf("restore Fetch() error = %v", err)
	}
	if string(body) != "<strong>Monday</strong>" {
		t.Fatalf("restore Fetch() = %q", body)
	}
	if calls := len(next.Calls()); calls != 1 {
		t.Fatalf("network fetches = %d, want 1", calls)
	}
}

func TestRestoreMissingFileIsFetchError(t *testing.T) {
	t.Parallel()

	fetcher := Wrap(&mock.Fetcher{}, &Config{Restore: true, Path: filepath.Join(t.TempDir(), "missing.html")})
	_, err := fetcher.Fetch(context.Background(), core.NewAddressKey("1", "CF101AB"))
	if !errors.Is(err, core.ErrFetch) {
		t.Fatalf("Fetch() error = %v, want ErrFetch", err)
	}
}
