package dest

import (
	"context"
	"errors"
	"strings"
	"time"

	goipp "github.com/OpenPrinting/goipp"
	"github.com/rs/zerolog"

	"cupsdestgolang/internal/model"
)

// readyTTL is how long ready-media/ready-option state stays fresh before
// the next access triggers a refetch.
const readyTTL = 30 * time.Second

// ErrNoMedia reports a media query with no acceptable candidate.
var ErrNoMedia = errors.New("no matching media")

// ReadyFetcher refetches the ready-state attribute subset for a
// destination. Implemented by the IPP client; nil disables refresh and
// ready queries fall back to the attributes supplied at construction.
type ReadyFetcher interface {
	FetchReady(ctx context.Context, dst model.Destination) (goipp.Attributes, error)
}

// Info is the per-destination capability cache: the printer's attribute
// tree plus lazily built media, constraint and default-option views. An
// Info is not safe for concurrent use; callers serialize access.
type Info struct {
	Dest model.Destination

	attrs goipp.Attributes
	log   zerolog.Logger
	fetch ReadyFetcher

	readyAttrs goipp.Attributes
	readyTime  time.Time

	supported *mediaStore
	ready     *mediaStore

	cached      []*MediaEntry
	cachedFlags MediaFlags
	haveCached  bool

	defaults     []model.Option
	haveDefaults bool

	constraints []Rule
	resolvers   map[string]Rule
	haveRules   bool
}

// InfoOption configures a new Info.
type InfoOption func(*Info)

func WithLogger(log zerolog.Logger) InfoOption {
	return func(d *Info) { d.log = log }
}

func WithReadyFetcher(f ReadyFetcher) InfoOption {
	return func(d *Info) { d.fetch = f }
}

// NewInfo wraps a fetched printer attribute tree. The Info owns every view
// built from it; nothing built here aliases caller memory.
func NewInfo(dst model.Destination, attrs goipp.Attributes, opts ...InfoOption) *Info {
	d := &Info{
		Dest:  dst,
		attrs: attrs,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Attributes exposes the raw attribute tree for callers that need direct
// lookups (the supported-value checker uses it internally).
func (d *Info) Attributes() goipp.Attributes {
	return d.attrs
}

// mediaDB returns the store for the flags, building it on first use. Ready
// queries refresh the ready snapshot when it is older than readyTTL.
func (d *Info) mediaDB(ctx context.Context, flags MediaFlags) *mediaStore {
	if flags&MediaFlagsReady != 0 {
		d.ensureReady(ctx)
		if d.ready == nil {
			d.ready = buildMediaStore(d.readyAttributes(), flags, d.log)
		}
		return d.ready
	}
	if d.supported == nil {
		d.supported = buildMediaStore(d.attrs, flags, d.log)
	}
	return d.supported
}

// ensureReady refreshes ready-state attributes past the TTL. Failures keep
// the stale snapshot; the printer may simply be busy.
func (d *Info) ensureReady(ctx context.Context) {
	if d.fetch == nil {
		return
	}
	if d.readyAttrs != nil && time.Since(d.readyTime) < readyTTL {
		return
	}
	attrs, err := d.fetch.FetchReady(ctx, d.Dest)
	if err != nil {
		d.log.Debug().Err(err).Str("printer", d.Dest.Name).Msg("ready refresh failed")
		return
	}
	d.readyAttrs = attrs
	d.readyTime = time.Now()
	d.ready = nil
	if d.haveCached && d.cachedFlags&MediaFlagsReady != 0 {
		d.haveCached = false
	}
}

// readyAttributes overlays the ready snapshot on the base tree so ready
// stores can still resolve shared attributes.
func (d *Info) readyAttributes() goipp.Attributes {
	if d.readyAttrs == nil {
		return d.attrs
	}
	merged := append(goipp.Attributes{}, d.readyAttrs...)
	return append(merged, d.attrs...)
}

// FindMedia answers a media query: by name and/or by dimensions, in
// hundredths of millimeters.
func (d *Info) FindMedia(ctx context.Context, name string, width, length int, flags MediaFlags) (*MediaEntry, error) {
	store := d.mediaDB(ctx, flags)
	entry := store.findMedia(strings.TrimSpace(name), width, length, flags)
	if entry == nil {
		return nil, ErrNoMedia
	}
	return entry, nil
}

// MediaCount returns the size of the cached reporting view for flags.
func (d *Info) MediaCount(ctx context.Context, flags MediaFlags) int {
	return len(d.cachedMedia(ctx, flags))
}

// MediaByIndex returns the i-th entry of the cached reporting view.
func (d *Info) MediaByIndex(ctx context.Context, i int, flags MediaFlags) (*MediaEntry, error) {
	view := d.cachedMedia(ctx, flags)
	if i < 0 || i >= len(view) {
		return nil, ErrNoMedia
	}
	return view[i], nil
}

func (d *Info) cachedMedia(ctx context.Context, flags MediaFlags) []*MediaEntry {
	if d.haveCached && d.cachedFlags == flags {
		return d.cached
	}
	store := d.mediaDB(ctx, flags)
	d.cached = store.cachedView(flags)
	d.cachedFlags = flags
	d.haveCached = true
	return d.cached
}

// MediaOptionsString renders a matched entry as a media-col option value
// for job submission.
func MediaOptionsString(entry *MediaEntry) string {
	size := goipp.Collection{}
	size.Add(goipp.MakeAttribute("x-dimension", goipp.TagInteger, goipp.Integer(entry.Width)))
	size.Add(goipp.MakeAttribute("y-dimension", goipp.TagInteger, goipp.Integer(entry.Length)))

	col := goipp.Collection{}
	col.Add(goipp.MakeAttribute("media-size", goipp.TagBeginCollection, size))
	col.Add(goipp.MakeAttribute("media-bottom-margin", goipp.TagInteger, goipp.Integer(entry.Bottom)))
	col.Add(goipp.MakeAttribute("media-left-margin", goipp.TagInteger, goipp.Integer(entry.Left)))
	col.Add(goipp.MakeAttribute("media-right-margin", goipp.TagInteger, goipp.Integer(entry.Right)))
	col.Add(goipp.MakeAttribute("media-top-margin", goipp.TagInteger, goipp.Integer(entry.Top)))
	if entry.Source != "" {
		col.Add(goipp.MakeAttribute("media-source", goipp.TagKeyword, goipp.String(entry.Source)))
	}
	if entry.Type != "" {
		col.Add(goipp.MakeAttribute("media-type", goipp.TagKeyword, goipp.String(entry.Type)))
	}
	return EncodeCollection(col)
}

// DefaultOptions flattens every xxx-default attribute into option pairs,
// built once per Info.
func (d *Info) DefaultOptions() []model.Option {
	if d.haveDefaults {
		return d.defaults
	}
	for _, attr := range d.attrs {
		if !strings.HasSuffix(attr.Name, "-default") || len(attr.Values) == 0 {
			continue
		}
		name := strings.TrimSuffix(attr.Name, "-default")
		if name == "" {
			continue
		}
		value := renderValues(attr)
		if value == "" {
			continue
		}
		d.defaults = append(d.defaults, model.Option{Name: name, Value: value})
	}
	d.haveDefaults = true
	return d.defaults
}

func (d *Info) rules() ([]Rule, map[string]Rule) {
	if !d.haveRules {
		d.constraints, d.resolvers = buildRules(d.attrs)
		d.haveRules = true
	}
	return d.constraints, d.resolvers
}
