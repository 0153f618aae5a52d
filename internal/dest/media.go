package dest

import (
	"sort"
	"strconv"
	"strings"

	goipp "github.com/OpenPrinting/goipp"
	"github.com/rs/zerolog"
)

// MediaFlags select which media database is consulted and how candidates
// are ranked.
type MediaFlags int

const (
	MediaFlagsDefault    MediaFlags = 0
	MediaFlagsBorderless MediaFlags = 1
	MediaFlagsDuplex     MediaFlags = 2
	MediaFlagsExact      MediaFlags = 4
	MediaFlagsReady      MediaFlags = 8
)

// Default margins for media advertised only as scalar names: 1/4" sides,
// 1/2" top and bottom, in hundredths of millimeters.
const (
	defaultSideMargin = 635
	defaultEndMargin  = 1270
)

// MediaEntry is one candidate physical media configuration. Entries are
// immutable once published into a store.
type MediaEntry struct {
	Key      string
	SizeName string
	Source   string
	Type     string
	Color    string
	Info     string
	Width    int
	Length   int
	Left     int
	Right    int
	Top      int
	Bottom   int
}

// Borderless reports whether all four margins are zero.
func (e *MediaEntry) Borderless() bool {
	return e.Left == 0 && e.Right == 0 && e.Top == 0 && e.Bottom == 0
}

// customRange is a printer-advertised min/max custom paper size with the
// margins that apply to synthesized sizes.
type customRange struct {
	minWidth  int
	minLength int
	maxWidth  int
	maxLength int
	left      int
	right     int
	top       int
	bottom    int
}

func (c *customRange) contains(width, length int) bool {
	return width >= c.minWidth && width <= c.maxWidth &&
		length >= c.minLength && length <= c.maxLength
}

// mediaStore is the per-destination media database: entries sorted by
// (width, length) for matching plus the original discovery order for
// reporting views.
type mediaStore struct {
	entries []*MediaEntry
	order   []*MediaEntry
	custom  *customRange

	haveCustomMin bool
	haveCustomMax bool
}

// buildMediaStore constructs the database from printer attributes. Ready
// stores read media-col-ready/media-ready, supported stores read
// media-col-database/media-supported. Malformed entries are skipped.
func buildMediaStore(attrs goipp.Attributes, flags MediaFlags, log zerolog.Logger) *mediaStore {
	colName, scalarName, keyPrefix := "media-col-database", "media-supported", "cups-media-"
	if flags&MediaFlagsReady != 0 {
		colName, scalarName, keyPrefix = "media-col-ready", "media-ready", "cups-media-ready-"
	}
	store := &mediaStore{}
	if attr, ok := findAttribute(attrs, colName); ok {
		for i, v := range attr.Values {
			col, ok := v.V.(goipp.Collection)
			if !ok {
				continue
			}
			store.addCollection(col, keyPrefix, i, log)
		}
	} else if attr, ok := findAttribute(attrs, scalarName); ok {
		for _, v := range attr.Values {
			store.addScalar(strings.TrimSpace(v.V.String()), log)
		}
	}
	if store.custom != nil && (!store.haveCustomMin || !store.haveCustomMax) {
		// A range with only one bound would accept arbitrary sizes.
		log.Debug().Msg("custom size range missing a bound, ignored")
		store.custom = nil
	}
	store.order = append([]*MediaEntry(nil), store.entries...)
	sort.SliceStable(store.entries, func(i, j int) bool {
		a, b := store.entries[i], store.entries[j]
		if a.Width != b.Width {
			return a.Width < b.Width
		}
		return a.Length < b.Length
	})
	return store
}

func (s *mediaStore) addCollection(col goipp.Collection, keyPrefix string, index int, log zerolog.Logger) {
	sizeCol, ok := collectionMember(col, "media-size")
	if !ok {
		log.Debug().Int("index", index).Msg("media collection without media-size, skipped")
		return
	}

	// A ranged x/y-dimension marks the custom size entry, which records the
	// destination's bounds instead of becoming a candidate.
	if xr, yr, isRange := dimensionRanges(sizeCol); isRange {
		cr := &customRange{
			minWidth:  xr.Lower,
			minLength: yr.Lower,
			maxWidth:  xr.Upper,
			maxLength: yr.Upper,
			left:      defaultSideMargin,
			right:     defaultSideMargin,
			top:       defaultEndMargin,
			bottom:    defaultEndMargin,
		}
		if v, ok := collectionInt(col, "media-left-margin"); ok {
			cr.left = v
		}
		if v, ok := collectionInt(col, "media-right-margin"); ok {
			cr.right = v
		}
		if v, ok := collectionInt(col, "media-top-margin"); ok {
			cr.top = v
		}
		if v, ok := collectionInt(col, "media-bottom-margin"); ok {
			cr.bottom = v
		}
		s.custom = cr
		s.haveCustomMin, s.haveCustomMax = true, true
		return
	}

	entry := &MediaEntry{
		Key:      collectionString(col, "media-key"),
		SizeName: collectionString(col, "media-size-name"),
		Source:   collectionString(col, "media-source"),
		Type:     collectionString(col, "media-type"),
		Color:    collectionString(col, "media-color"),
		Info:     collectionString(col, "media-info"),
	}
	if w, ok := collectionInt(sizeCol, "x-dimension"); ok {
		entry.Width = w
	}
	if l, ok := collectionInt(sizeCol, "y-dimension"); ok {
		entry.Length = l
	}
	if entry.Width <= 0 || entry.Length <= 0 {
		// Fall back to the size name when dimensions are absent.
		size, ok := pwgSizeForName(entry.SizeName)
		if !ok {
			log.Debug().Str("media-size-name", entry.SizeName).Msg("media entry without resolvable size, dropped")
			return
		}
		entry.Width, entry.Length = size.Width, size.Length
	}
	if v, ok := collectionInt(col, "media-left-margin"); ok {
		entry.Left = v
	}
	if v, ok := collectionInt(col, "media-right-margin"); ok {
		entry.Right = v
	}
	if v, ok := collectionInt(col, "media-top-margin"); ok {
		entry.Top = v
	}
	if v, ok := collectionInt(col, "media-bottom-margin"); ok {
		entry.Bottom = v
	}
	if entry.Key == "" {
		entry.Key = synthesizeMediaKey(entry, keyPrefix, index)
	}
	s.entries = append(s.entries, entry)
}

func (s *mediaStore) addScalar(name string, log zerolog.Logger) {
	if name == "" {
		return
	}
	if size, isMin, ok := parseCustomRangeName(name); ok {
		if s.custom == nil {
			s.custom = &customRange{
				left:   defaultSideMargin,
				right:  defaultSideMargin,
				top:    defaultEndMargin,
				bottom: defaultEndMargin,
			}
		}
		if isMin {
			s.custom.minWidth, s.custom.minLength = size.Width, size.Length
			s.haveCustomMin = true
		} else {
			s.custom.maxWidth, s.custom.maxLength = size.Width, size.Length
			s.haveCustomMax = true
		}
		return
	}
	size, ok := pwgSizeForName(name)
	if !ok {
		log.Debug().Str("media", name).Msg("unknown media name, skipped")
		return
	}
	s.entries = append(s.entries, &MediaEntry{
		Key:      name,
		SizeName: name,
		Width:    size.Width,
		Length:   size.Length,
		Left:     defaultSideMargin,
		Right:    defaultSideMargin,
		Top:      defaultEndMargin,
		Bottom:   defaultEndMargin,
	})
}

// synthesizeMediaKey builds a unique key for entries the printer did not
// key itself: "<size>[_<source>][_<type>][_borderless]", falling back to a
// positional cups-media[-ready]-N key.
func synthesizeMediaKey(e *MediaEntry, prefix string, index int) string {
	name := e.SizeName
	if name == "" {
		name = pwgNameForSize(e.Width, e.Length)
	}
	if name == "" {
		return prefix + strconv.Itoa(index+1)
	}
	key := name
	if e.Source != "" {
		key += "_" + e.Source
	}
	if e.Type != "" {
		key += "_" + e.Type
	}
	if e.Borderless() {
		key += "_borderless"
	}
	return key
}

// customEntry synthesizes an in-range custom size using the range's margins.
func (s *mediaStore) customEntry(width, length int) *MediaEntry {
	name := formatCustomSizeName(width, length)
	return &MediaEntry{
		Key:      name,
		SizeName: name,
		Width:    width,
		Length:   length,
		Left:     s.custom.left,
		Right:    s.custom.right,
		Top:      s.custom.top,
		Bottom:   s.custom.bottom,
	}
}

func findAttribute(attrs goipp.Attributes, name string) (goipp.Attribute, bool) {
	for _, attr := range attrs {
		if strings.EqualFold(attr.Name, name) && len(attr.Values) > 0 {
			return attr, true
		}
	}
	return goipp.Attribute{}, false
}

func collectionMember(col goipp.Collection, name string) (goipp.Collection, bool) {
	for _, attr := range col {
		if attr.Name != name || len(attr.Values) == 0 {
			continue
		}
		if c, ok := attr.Values[0].V.(goipp.Collection); ok {
			return c, true
		}
	}
	return goipp.Collection{}, false
}

func collectionInt(col goipp.Collection, name string) (int, bool) {
	for _, attr := range col {
		if attr.Name != name || len(attr.Values) == 0 {
			continue
		}
		if v, ok := attr.Values[0].V.(goipp.Integer); ok {
			return int(v), true
		}
	}
	return 0, false
}

func collectionString(col goipp.Collection, name string) string {
	for _, attr := range col {
		if attr.Name != name || len(attr.Values) == 0 {
			continue
		}
		return strings.TrimSpace(attr.Values[0].V.String())
	}
	return ""
}

// dimensionRanges reports whether the media-size members are ranges, which
// identifies the custom size entry.
func dimensionRanges(sizeCol goipp.Collection) (goipp.Range, goipp.Range, bool) {
	var xr, yr goipp.Range
	var haveX, haveY bool
	for _, attr := range sizeCol {
		if len(attr.Values) == 0 {
			continue
		}
		if r, ok := attr.Values[0].V.(goipp.Range); ok {
			switch attr.Name {
			case "x-dimension":
				xr, haveX = r, true
			case "y-dimension":
				yr, haveY = r, true
			}
		}
	}
	return xr, yr, haveX && haveY
}
