package destcache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	goipp "github.com/OpenPrinting/goipp"

	"cupsdestgolang/internal/model"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(context.Background(), filepath.Join(t.TempDir(), "dest.db"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSnapshotRoundTrip(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()
	attrs := goipp.Attributes{
		goipp.MakeAttribute("printer-name", goipp.TagName, goipp.String("office")),
		goipp.MakeAttribute("copies-supported", goipp.TagRange, goipp.Range{Lower: 1, Upper: 99}),
	}

	if err := c.PutSnapshot(ctx, "ipp://server/printers/office", attrs, time.Now()); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, _, ok, err := c.GetSnapshot(ctx, "ipp://server/printers/office", time.Minute)
	if err != nil || !ok {
		t.Fatalf("get: %v ok=%v", err, ok)
	}
	found := false
	for _, attr := range got {
		if attr.Name == "copies-supported" {
			r, isRange := attr.Values[0].V.(goipp.Range)
			if !isRange || r.Lower != 1 || r.Upper != 99 {
				t.Fatalf("range not preserved: %v", attr.Values)
			}
			found = true
		}
	}
	if !found {
		t.Fatalf("copies-supported missing from decoded snapshot")
	}

	if _, _, ok, _ := c.GetSnapshot(ctx, "ipp://server/printers/other", time.Minute); ok {
		t.Fatalf("unknown uri should miss")
	}
}

func TestSnapshotMaxAge(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()
	attrs := goipp.Attributes{
		goipp.MakeAttribute("printer-name", goipp.TagName, goipp.String("office")),
	}
	if err := c.PutSnapshot(ctx, "uri", attrs, time.Now().Add(-time.Hour)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, _, ok, _ := c.GetSnapshot(ctx, "uri", time.Minute); ok {
		t.Fatalf("stale snapshot should miss with maxAge set")
	}
	if _, _, ok, _ := c.GetSnapshot(ctx, "uri", 0); !ok {
		t.Fatalf("zero maxAge should accept any age")
	}
}

func TestPruneSnapshots(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()
	attrs := goipp.Attributes{
		goipp.MakeAttribute("printer-name", goipp.TagName, goipp.String("office")),
	}
	c.PutSnapshot(ctx, "old", attrs, time.Now().Add(-2*time.Hour))
	c.PutSnapshot(ctx, "new", attrs, time.Now())

	n, err := c.PruneSnapshots(ctx, time.Now().Add(-time.Hour))
	if err != nil || n != 1 {
		t.Fatalf("prune: n=%d err=%v", n, err)
	}
	if _, _, ok, _ := c.GetSnapshot(ctx, "new", 0); !ok {
		t.Fatalf("fresh snapshot pruned")
	}
}

func TestSavedOptions(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()
	opts := []model.Option{
		{Name: "media", Value: "iso_a4_210x297mm"},
		{Name: "sides", Value: "two-sided-long-edge"},
	}
	if err := c.SaveOptions(ctx, "office", "", opts); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := c.SavedOptions(ctx, "office", "")
	if err != nil || len(got) != 2 {
		t.Fatalf("load: %v %v", got, err)
	}
	if got[0].Name != "media" || got[1].Value != "two-sided-long-edge" {
		t.Fatalf("unexpected options: %v", got)
	}

	// Saving again replaces, never merges.
	if err := c.SaveOptions(ctx, "office", "", opts[:1]); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, _ = c.SavedOptions(ctx, "office", "")
	if len(got) != 1 {
		t.Fatalf("expected replacement, got %v", got)
	}

	// Instances are independent.
	if err := c.SaveOptions(ctx, "office", "duplex", opts); err != nil {
		t.Fatalf("save instance: %v", err)
	}
	got, _ = c.SavedOptions(ctx, "office", "duplex")
	if len(got) != 2 {
		t.Fatalf("instance options: %v", got)
	}

	if err := c.RemoveOptions(ctx, "office", ""); err != nil {
		t.Fatalf("remove: %v", err)
	}
	got, _ = c.SavedOptions(ctx, "office", "")
	if len(got) != 0 {
		t.Fatalf("options survived removal: %v", got)
	}
}

func TestDefaultDestination(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	if _, _, ok, err := c.DefaultDestination(ctx); err != nil || ok {
		t.Fatalf("empty cache should have no default: %v %v", ok, err)
	}
	if err := c.SetDefaultDestination(ctx, "office", "duplex"); err != nil {
		t.Fatalf("set: %v", err)
	}
	dest, instance, ok, err := c.DefaultDestination(ctx)
	if err != nil || !ok || dest != "office" || instance != "duplex" {
		t.Fatalf("got %q %q %v %v", dest, instance, ok, err)
	}
	if err := c.SetDefaultDestination(ctx, "lab", ""); err != nil {
		t.Fatalf("replace: %v", err)
	}
	dest, _, _, _ = c.DefaultDestination(ctx)
	if dest != "lab" {
		t.Fatalf("default not replaced: %q", dest)
	}
}
