package dest

import (
	"strings"
	"testing"

	goipp "github.com/OpenPrinting/goipp"
)

func TestEncodeCollection(t *testing.T) {
	size := goipp.Collection{}
	size.Add(goipp.MakeAttribute("x-dimension", goipp.TagInteger, goipp.Integer(21590)))
	size.Add(goipp.MakeAttribute("y-dimension", goipp.TagInteger, goipp.Integer(27940)))

	col := goipp.Collection{}
	col.Add(goipp.MakeAttribute("media-size", goipp.TagBeginCollection, size))
	col.Add(goipp.MakeAttribute("media-type", goipp.TagKeyword, goipp.String("photo paper")))
	col.Add(goipp.MakeAttribute("duplex", goipp.TagBoolean, goipp.Boolean(true)))
	col.Add(goipp.MakeAttribute("copies-range", goipp.TagRange, goipp.Range{Lower: 1, Upper: 99}))
	col.Add(goipp.MakeAttribute("resolution", goipp.TagResolution,
		goipp.Resolution{Xres: 300, Yres: 600, Units: goipp.UnitsDpi}))

	got := EncodeCollection(col)
	want := `{media-size={x-dimension=21590 y-dimension=27940} media-type="photo paper" duplex=true copies-range=1-99 resolution=300x600dpi}`
	if got != want {
		t.Fatalf("encode mismatch:\n got %s\nwant %s", got, want)
	}
}

func TestEncodeCollectionQuoting(t *testing.T) {
	col := goipp.Collection{}
	col.Add(goipp.MakeAttribute("info", goipp.TagText, goipp.String(`say "hi" \ bye`)))
	got := EncodeCollection(col)
	want := `{info="say \"hi\" \\ bye"}`
	if got != want {
		t.Fatalf("quote mismatch:\n got %s\nwant %s", got, want)
	}
}

func TestDecodeCollectionRoundTrip(t *testing.T) {
	value := `{media-size={x-dimension=21590 y-dimension=27940} media-type="photo paper" sides=one-sided}`
	col, ok := DecodeCollection(value)
	if !ok {
		t.Fatalf("decode failed for %s", value)
	}
	if len(col) != 3 {
		t.Fatalf("expected 3 members, got %d", len(col))
	}
	nested, ok := col[0].Values[0].V.(goipp.Collection)
	if !ok {
		t.Fatalf("media-size should decode to a nested collection")
	}
	if got := collectionString(nested, "x-dimension"); got != "21590" {
		t.Fatalf("x-dimension = %q", got)
	}
	if got := collectionString(col, "media-type"); got != "photo paper" {
		t.Fatalf("media-type = %q", got)
	}
	if got := collectionString(col, "sides"); got != "one-sided" {
		t.Fatalf("sides = %q", got)
	}
}

func TestDecodeCollectionMultiValue(t *testing.T) {
	col, ok := DecodeCollection(`{finishings=staple,punch}`)
	if !ok || len(col) != 1 {
		t.Fatalf("decode failed: %v %v", col, ok)
	}
	if len(col[0].Values) != 2 {
		t.Fatalf("expected 2 values, got %d", len(col[0].Values))
	}
	if col[0].Values[0].V.String() != "staple" || col[0].Values[1].V.String() != "punch" {
		t.Fatalf("unexpected values: %v", col[0].Values)
	}
}

func TestDecodeCollectionRejectsMalformed(t *testing.T) {
	for _, bad := range []string{"", "media-size=21590", "{unterminated", "plain"} {
		if _, ok := DecodeCollection(bad); ok {
			t.Fatalf("expected decode failure for %q", bad)
		}
	}
}

func TestEncodeCollectionOptionLengthBound(t *testing.T) {
	col := goipp.Collection{}
	col.Add(goipp.MakeAttribute("blob", goipp.TagText,
		goipp.String(strings.Repeat("x", MaxOptionValueLength))))
	if _, err := EncodeCollectionOption(col); err != ErrValueTooLong {
		t.Fatalf("expected ErrValueTooLong, got %v", err)
	}

	small := goipp.Collection{}
	small.Add(goipp.MakeAttribute("sides", goipp.TagKeyword, goipp.String("one-sided")))
	if _, err := EncodeCollectionOption(small); err != nil {
		t.Fatalf("small collection should encode: %v", err)
	}
}

func TestParseResolution(t *testing.T) {
	tests := []struct {
		in   string
		want goipp.Resolution
		ok   bool
	}{
		{"300dpi", goipp.Resolution{Xres: 300, Yres: 300, Units: goipp.UnitsDpi}, true},
		{"300x600dpi", goipp.Resolution{Xres: 300, Yres: 600, Units: goipp.UnitsDpi}, true},
		{"118dpcm", goipp.Resolution{Xres: 118, Yres: 118, Units: goipp.UnitsDpcm}, true},
		{"118dpc", goipp.Resolution{Xres: 118, Yres: 118, Units: goipp.UnitsDpcm}, true},
		{"600", goipp.Resolution{Xres: 600, Yres: 600, Units: goipp.UnitsDpi}, true},
		{"", goipp.Resolution{}, false},
		{"0dpi", goipp.Resolution{}, false},
		{"axbdpi", goipp.Resolution{}, false},
	}
	for _, tc := range tests {
		got, ok := parseResolution(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("parseResolution(%q) = %+v %v, want %+v %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestFormatResolution(t *testing.T) {
	if got := formatResolution(goipp.Resolution{Xres: 600, Yres: 600, Units: goipp.UnitsDpi}); got != "600dpi" {
		t.Fatalf("got %q", got)
	}
	if got := formatResolution(goipp.Resolution{Xres: 300, Yres: 600, Units: goipp.UnitsDpcm}); got != "300x600dpcm" {
		t.Fatalf("got %q", got)
	}
}
