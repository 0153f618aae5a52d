package dest

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"cupsdestgolang/internal/model"
)

func letterStore() *mediaStore {
	attrs := databaseAttrs(
		mediaCol("na_letter_8.5x11in", 21590, 27940, 635, 635, 1270, 1270),
		mediaCol("na_letter_8.5x11in", 21590, 27940, 0, 0, 0, 0),
	)
	return buildMediaStore(attrs, MediaFlagsDefault, zerolog.Nop())
}

func TestFindMediaBorderlessPrefersZeroMargins(t *testing.T) {
	store := letterStore()
	entry := store.findMedia("", 21590, 27940, MediaFlagsBorderless)
	if entry == nil {
		t.Fatalf("expected a match")
	}
	if !entry.Borderless() {
		t.Fatalf("borderless query returned bordered entry: %+v", entry)
	}
}

// The default rule treats a zero margin as absent, never preferred: the
// bordered na_letter entry must win unless borderless was requested.
func TestFindMediaDefaultPrefersNonZeroMargins(t *testing.T) {
	store := letterStore()
	entry := store.findMedia("", 21590, 27940, MediaFlagsDefault)
	if entry == nil {
		t.Fatalf("expected a match")
	}
	if entry.Borderless() {
		t.Fatalf("default query must not prefer the borderless entry: %+v", entry)
	}
	if entry.Left != 635 || entry.Top != 1270 {
		t.Fatalf("unexpected margins: %+v", entry)
	}
}

func TestFindMediaExactIsIdempotent(t *testing.T) {
	store := letterStore()
	first := store.findMedia("", 21590, 27940, MediaFlagsDefault)
	second := store.findMedia("", 21590, 27940, MediaFlagsDefault)
	if first == nil || second == nil {
		t.Fatalf("expected matches")
	}
	if first != second {
		t.Fatalf("identical queries should return the same entry")
	}
	if first.Width != 21590 || first.Length != 27940 {
		t.Fatalf("exact match changed dimensions: %+v", first)
	}
}

func TestFindMediaCloseToleranceBoundary(t *testing.T) {
	attrs := databaseAttrs(
		mediaCol("iso_a4_210x297mm", 21000, 29700, 635, 635, 1270, 1270),
	)
	store := buildMediaStore(attrs, MediaFlagsDefault, zerolog.Nop())

	if entry := store.findMedia("", 21000+closeTolerance, 29700, MediaFlagsDefault); entry == nil {
		t.Fatalf("size %d units away should match", closeTolerance)
	}
	if entry := store.findMedia("", 21000+closeTolerance+1, 29700, MediaFlagsDefault); entry != nil {
		t.Fatalf("size %d units away should not match, got %+v", closeTolerance+1, entry)
	}
}

func TestFindMediaCustomRangeSynthesis(t *testing.T) {
	attrs := databaseAttrs(
		mediaCol("na_letter_8.5x11in", 21590, 27940, 635, 635, 1270, 1270),
		customRangeCol(7620, 21590, 12700, 35560),
	)
	store := buildMediaStore(attrs, MediaFlagsDefault, zerolog.Nop())

	entry := store.findMedia("", 10000, 30000, MediaFlagsDefault)
	if entry == nil {
		t.Fatalf("in-range custom size should synthesize an entry")
	}
	if entry.Key != "custom_100x300mm" {
		t.Fatalf("unexpected custom key: %s", entry.Key)
	}
	if entry.Left != 635 || entry.Right != 635 || entry.Top != 1270 || entry.Bottom != 1270 {
		t.Fatalf("custom entry should use range margins: %+v", entry)
	}

	if entry := store.findMedia("", 5000, 30000, MediaFlagsDefault); entry != nil {
		t.Fatalf("out-of-range custom size should not match, got %+v", entry)
	}
}

func TestFindMediaExactFlagForbidsFallbacks(t *testing.T) {
	attrs := databaseAttrs(
		mediaCol("iso_a4_210x297mm", 21000, 29700, 635, 635, 1270, 1270),
		customRangeCol(7620, 21590, 12700, 35560),
	)
	store := buildMediaStore(attrs, MediaFlagsDefault, zerolog.Nop())

	// Close but not exact: EXACT allows the custom range, not the ±176 scan.
	if entry := store.findMedia("", 21050, 29750, MediaFlagsExact); entry == nil {
		t.Fatalf("EXACT within the custom range should synthesize")
	}
	if entry := store.findMedia("", 30000, 40000, MediaFlagsExact); entry != nil {
		t.Fatalf("EXACT outside range must fail, got %+v", entry)
	}
}

func TestFindMediaExactBorderlessRequiresTrueZero(t *testing.T) {
	attrs := databaseAttrs(
		mediaCol("na_letter_8.5x11in", 21590, 27940, 635, 635, 1270, 1270),
	)
	store := buildMediaStore(attrs, MediaFlagsDefault, zerolog.Nop())
	if entry := store.findMedia("", 21590, 27940, MediaFlagsExact|MediaFlagsBorderless); entry != nil {
		t.Fatalf("no borderless entry exists, match must fail: %+v", entry)
	}
}

func TestFindMediaByName(t *testing.T) {
	store := letterStore()
	entry := store.findMedia("na_letter_8.5x11in_borderless", 0, 0, MediaFlagsDefault)
	if entry == nil || !entry.Borderless() {
		t.Fatalf("key lookup failed: %+v", entry)
	}
	// Legacy name resolves through the PWG table to dimensions.
	entry = store.findMedia("letter", 0, 0, MediaFlagsDefault)
	if entry == nil || entry.Width != 21590 {
		t.Fatalf("legacy name lookup failed: %+v", entry)
	}
}

func TestInfoFindMediaNotFound(t *testing.T) {
	info := NewInfo(model.Destination{Name: "office"}, databaseAttrs(
		mediaCol("iso_a4_210x297mm", 21000, 29700, 635, 635, 1270, 1270),
	))
	_, err := info.FindMedia(context.Background(), "", 5000, 5000, MediaFlagsDefault)
	if !errors.Is(err, ErrNoMedia) {
		t.Fatalf("expected ErrNoMedia, got %v", err)
	}
}

func TestMediaOptionsString(t *testing.T) {
	entry := &MediaEntry{
		Key:      "na_letter_8.5x11in",
		SizeName: "na_letter_8.5x11in",
		Source:   "tray-1",
		Type:     "stationery",
		Width:    21590,
		Length:   27940,
		Left:     635,
		Right:    635,
		Top:      1270,
		Bottom:   1270,
	}
	got := MediaOptionsString(entry)
	want := `{media-size={x-dimension=21590 y-dimension=27940} media-bottom-margin=1270 media-left-margin=635 media-right-margin=635 media-top-margin=1270 media-source="tray-1" media-type="stationery"}`
	if got != want {
		t.Fatalf("media-col string mismatch:\n got %s\nwant %s", got, want)
	}
}
