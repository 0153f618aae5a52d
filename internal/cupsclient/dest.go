package cupsclient

import (
	"context"
	"strings"

	goipp "github.com/OpenPrinting/goipp"

	"cupsdestgolang/internal/dest"
	"cupsdestgolang/internal/model"
)

// destAttributes is what a capability snapshot asks for. "all" covers the
// job template and printer description attributes; media-col-database is
// excluded from "all" by the standard and must be requested by name.
var destAttributes = []string{"all", "media-col-database"}

// readyAttributes is the small subset refetched when ready state expires.
var readyAttributes = []string{
	"media-col-ready",
	"media-ready",
	"printer-state",
	"printer-state-reasons",
}

// Destinations lists the queues the server knows about.
func (c *Client) Destinations(ctx context.Context) ([]model.Destination, error) {
	msg := c.newRequest(goipp.OpCupsGetPrinters)
	msg.Operation.Add(goipp.MakeAttr("requested-attributes", goipp.TagKeyword,
		goipp.String("printer-name"),
		goipp.String("printer-uri-supported"),
		goipp.String("printer-info"),
		goipp.String("printer-location"),
		goipp.String("printer-make-and-model"),
	))
	resp, err := c.Do(ctx, msg)
	if err != nil {
		return nil, err
	}
	if err := statusError(resp); err != nil {
		return nil, err
	}

	var out []model.Destination
	for _, g := range resp.Groups {
		if g.Tag != goipp.TagPrinterGroup {
			continue
		}
		dst := destinationFromAttrs(g.Attrs)
		if dst.Name != "" {
			out = append(out, dst)
		}
	}
	return out, nil
}

// DefaultDestination resolves the server default queue, or nil when the
// server has none configured.
func (c *Client) DefaultDestination(ctx context.Context) (*model.Destination, error) {
	msg := c.newRequest(goipp.OpCupsGetDefault)
	resp, err := c.Do(ctx, msg)
	if err != nil {
		return nil, err
	}
	if goipp.Status(resp.Code) == goipp.StatusErrorNotFound {
		return nil, nil
	}
	if err := statusError(resp); err != nil {
		return nil, err
	}
	for _, g := range resp.Groups {
		if g.Tag != goipp.TagPrinterGroup {
			continue
		}
		dst := destinationFromAttrs(g.Attrs)
		if dst.Name != "" {
			dst.IsDefault = true
			return &dst, nil
		}
	}
	return nil, nil
}

// PrinterAttributes fetches the named attributes for a destination.
func (c *Client) PrinterAttributes(ctx context.Context, dst model.Destination, requested ...string) (goipp.Attributes, error) {
	msg := c.newRequest(goipp.OpGetPrinterAttributes)
	msg.Operation.Add(goipp.MakeAttribute("printer-uri", goipp.TagURI, goipp.String(c.destURI(dst))))
	if len(requested) > 0 {
		attr := goipp.MakeAttribute("requested-attributes", goipp.TagKeyword, goipp.String(requested[0]))
		for _, name := range requested[1:] {
			attr.Values.Add(goipp.TagKeyword, goipp.String(name))
		}
		msg.Operation.Add(attr)
	}
	resp, err := c.Do(ctx, msg)
	if err != nil {
		return nil, err
	}
	if err := statusError(resp); err != nil {
		return nil, err
	}
	var attrs goipp.Attributes
	for _, g := range resp.Groups {
		if g.Tag == goipp.TagPrinterGroup {
			attrs = append(attrs, g.Attrs...)
		}
	}
	return attrs, nil
}

// FetchReady implements dest.ReadyFetcher: the periodic ready-media
// refresh uses the same request with a narrow attribute list.
func (c *Client) FetchReady(ctx context.Context, dst model.Destination) (goipp.Attributes, error) {
	return c.PrinterAttributes(ctx, dst, readyAttributes...)
}

// CopyDestInfo fetches (or reuses from cache) the capability snapshot for
// a destination and wraps it for media, conflict and supported-value
// queries.
func (c *Client) CopyDestInfo(ctx context.Context, cache *dest.Cache, dst model.Destination) (*dest.Info, error) {
	uri := c.destURI(dst)
	if info, ok := cache.Get(uri); ok {
		return info, nil
	}
	attrs, err := c.PrinterAttributes(ctx, dst, destAttributes...)
	if err != nil {
		return nil, err
	}
	info := dest.NewInfo(dst, attrs, dest.WithLogger(c.log), dest.WithReadyFetcher(c))
	cache.Add(uri, info)
	return info, nil
}

func (c *Client) destURI(dst model.Destination) string {
	if uri := strings.TrimSpace(dst.URI); uri != "" {
		return uri
	}
	return c.PrinterURI(dst.Name)
}

func destinationFromAttrs(attrs goipp.Attributes) model.Destination {
	return model.Destination{
		Name:      attrString(attrs, "printer-name"),
		URI:       attrString(attrs, "printer-uri-supported"),
		Info:      attrString(attrs, "printer-info"),
		Location:  attrString(attrs, "printer-location"),
		MakeModel: attrString(attrs, "printer-make-and-model"),
	}
}
