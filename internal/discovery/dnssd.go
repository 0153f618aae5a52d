package discovery

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
	"github.com/rs/zerolog"

	"cupsdestgolang/internal/model"
)

// ippServices are the DNS-SD service types a printing destination can
// advertise, most capable first.
var ippServices = []string{"_ipps._tcp", "_ipp-tls._tcp", "_ipp._tcp"}

// Browser finds IPP destinations on the local network via multicast DNS.
type Browser struct {
	timeout time.Duration
	log     zerolog.Logger
}

type BrowserOption func(*Browser)

func WithTimeout(d time.Duration) BrowserOption {
	return func(b *Browser) {
		if d > 0 {
			b.timeout = d
		}
	}
}

func WithLogger(log zerolog.Logger) BrowserOption {
	return func(b *Browser) { b.log = log }
}

func NewBrowser(opts ...BrowserOption) *Browser {
	b := &Browser{
		timeout: 2 * time.Second,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Browse queries each IPP service type and returns the advertised
// destinations, de-duplicated by URI. A destination seen under both ipps
// and ipp keeps the first (more capable) advertisement.
func (b *Browser) Browse(ctx context.Context) ([]model.Destination, error) {
	var out []model.Destination
	seen := map[string]bool{}
	for _, service := range ippServices {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		entries := make(chan *mdns.ServiceEntry, 64)
		qctx, cancel := context.WithTimeout(ctx, b.timeout)
		go func() {
			_ = mdns.Query(&mdns.QueryParam{
				Service: service,
				Domain:  "local",
				Timeout: b.timeout,
				Entries: entries,
			})
			close(entries)
		}()
	collect:
		for {
			select {
			case <-qctx.Done():
				break collect
			case entry, ok := <-entries:
				if !ok {
					break collect
				}
				dst, ok := b.destinationFromEntry(service, entry)
				if !ok {
					continue
				}
				key := strings.ToLower(dst.URI)
				if seen[key] {
					continue
				}
				seen[key] = true
				out = append(out, dst)
			}
		}
		cancel()
	}
	return out, nil
}

func (b *Browser) destinationFromEntry(service string, entry *mdns.ServiceEntry) (model.Destination, bool) {
	if entry == nil {
		return model.Destination{}, false
	}
	host := entry.Host
	if host == "" && entry.AddrV4 != nil {
		host = entry.AddrV4.String()
	} else if host == "" && entry.AddrV6 != nil {
		host = entry.AddrV6.String()
	}
	if host == "" || entry.Port == 0 {
		return model.Destination{}, false
	}
	txt := parseTxtRecords(entry.InfoFields)
	uri := buildIPPURI(service, host, entry.Port, txt)
	b.log.Debug().Str("service", service).Str("uri", uri).Msg("found destination")
	return model.Destination{
		Name:      queueName(entry.Name, txt),
		URI:       uri,
		Info:      firstNonEmpty(txt["ty"], txt["note"], entry.Name),
		Location:  txt["note"],
		MakeModel: firstNonEmpty(txt["product"], txt["ty"], "IPP"),
	}, true
}

// queueName derives a destination name from the advertised instance,
// falling back to the rp= queue path.
func queueName(instance string, txt map[string]string) string {
	name := strings.TrimSpace(instance)
	if idx := strings.Index(name, "._"); idx > 0 {
		name = name[:idx]
	}
	name = strings.TrimSuffix(name, ".")
	if name != "" {
		return name
	}
	rp := strings.TrimPrefix(strings.TrimSpace(txt["rp"]), "printers/")
	return strings.TrimPrefix(rp, "/")
}

func parseTxtRecords(records []string) map[string]string {
	out := map[string]string{}
	for _, record := range records {
		record = strings.TrimSpace(record)
		if record == "" {
			continue
		}
		key, value, ok := strings.Cut(record, "=")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if key != "" {
			out[key] = strings.TrimSpace(value)
		}
	}
	return out
}

func buildIPPURI(service, host string, port int, txt map[string]string) string {
	scheme := "ipp"
	if strings.Contains(service, "ipps") || strings.Contains(service, "ipp-tls") {
		scheme = "ipps"
	}
	resource := strings.TrimPrefix(txt["rp"], "/")
	if resource == "" {
		resource = "ipp/print"
	}
	return scheme + "://" + host + ":" + strconv.Itoa(port) + "/" + resource
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
