package cupsclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	goipp "github.com/OpenPrinting/goipp"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxRequestAttempts bounds the retry loop for one logical IPP request:
// busy responses back off and retry, a version-not-supported response
// downgrades the protocol version and retries.
const maxRequestAttempts = 10

const requestTimeout = 60 * time.Second

// ErrTooManyAttempts reports a request abandoned after maxRequestAttempts.
var ErrTooManyAttempts = errors.New("too many request attempts")

type Client struct {
	Host               string
	Port               int
	UseTLS             bool
	User               string
	Password           string
	InsecureSkipVerify bool

	log  zerolog.Logger
	http *http.Client

	reqID atomic.Uint32

	mu      sync.Mutex
	version goipp.Version
}

type ClientOption func(*Client)

func WithServer(server string) ClientOption {
	return func(c *Client) {
		if strings.TrimSpace(server) == "" {
			return
		}
		host, port, useTLS := parseServer(server)
		if host != "" {
			c.Host = host
		}
		if port > 0 {
			c.Port = port
		}
		if useTLS {
			c.UseTLS = true
		}
	}
}

func WithTLS(enable bool) ClientOption {
	return func(c *Client) {
		if enable {
			c.UseTLS = true
		}
	}
}

func WithUser(user string) ClientOption {
	return func(c *Client) {
		if strings.TrimSpace(user) != "" {
			c.User = user
		}
	}
}

func WithPassword(password string) ClientOption {
	return func(c *Client) {
		if password != "" {
			c.Password = password
		}
	}
}

func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) { c.log = log }
}

// NewFromConfig builds a client from client.conf and the CUPS_* environment
// overrides, then applies opts on top.
func NewFromConfig(opts ...ClientOption) *Client {
	settings := loadClientSettings()
	client := &Client{
		Host:               settings.host,
		Port:               settings.port,
		UseTLS:             settings.useTLS,
		User:               settings.user,
		Password:           settings.password,
		InsecureSkipVerify: settings.insecureSkipVerify,
		log:                zerolog.Nop(),
		version:            goipp.DefaultVersion,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.Host == "" {
		client.Host = "localhost"
	}
	if client.Port == 0 {
		client.Port = defaultIPPPort()
	}
	client.http = &http.Client{
		Timeout: requestTimeout,
		Transport: &http.Transport{
			TLSClientConfig: tlsConfig(client),
		},
	}
	return client
}

// PrinterURI builds the ipp:// URI for a queue on this client's server.
func (c *Client) PrinterURI(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "ipp://" + c.Host + "/printers/"
	}
	return "ipp://" + c.Host + "/printers/" + url.PathEscape(name)
}

func (c *Client) httpURL(path string) string {
	scheme := "http"
	if c.UseTLS {
		scheme = "https"
	}
	if path == "" {
		path = "/"
	}
	return scheme + "://" + c.Host + ":" + strconv.Itoa(c.Port) + path
}

func (c *Client) currentVersion() goipp.Version {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

func (c *Client) downgradeVersion() goipp.Version {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.version > goipp.MakeVersion(1, 1) {
		c.version = goipp.MakeVersion(1, 1)
	}
	return c.version
}

// newRequest builds an operation message with the standard charset,
// language and user attributes every request carries.
func (c *Client) newRequest(op goipp.Op) *goipp.Message {
	msg := goipp.NewRequest(c.currentVersion(), op, c.reqID.Add(1))
	msg.Operation.Add(goipp.MakeAttribute("attributes-charset", goipp.TagCharset, goipp.String("utf-8")))
	msg.Operation.Add(goipp.MakeAttribute("attributes-natural-language", goipp.TagLanguage, goipp.String("en")))
	if c.User != "" {
		msg.Operation.Add(goipp.MakeAttribute("requesting-user-name", goipp.TagName, goipp.String(c.User)))
	}
	return msg
}

// Do sends the request and retries through transient server states: a busy
// status backs off exponentially, a version-not-supported status downgrades
// to IPP/1.1 and retries. Any other response, success or failure, is
// returned to the caller.
func (c *Client) Do(ctx context.Context, msg *goipp.Message) (*goipp.Message, error) {
	if msg == nil {
		return nil, errors.New("missing ipp message")
	}
	corr := ""
	if c.log.Debug().Enabled() {
		corr = uuid.NewString()
	}
	backoff := 250 * time.Millisecond
	for attempt := 1; attempt <= maxRequestAttempts; attempt++ {
		resp, err := c.post(ctx, msg, nil)
		if err != nil {
			return nil, err
		}
		switch goipp.Status(resp.Code) {
		case goipp.StatusErrorBusy:
			c.log.Debug().
				Str("request", corr).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("server busy, retrying")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			if backoff < 4*time.Second {
				backoff *= 2
			}
		case goipp.StatusErrorVersionNotSupported:
			msg.Version = c.downgradeVersion()
			c.log.Debug().
				Str("request", corr).
				Int("attempt", attempt).
				Msg("downgrading to ipp/1.1")
		default:
			return resp, nil
		}
	}
	return nil, fmt.Errorf("request %d: %w", msg.RequestID, ErrTooManyAttempts)
}

// Send posts a single request with an optional trailing document payload.
// No retries: a payload reader cannot be replayed.
func (c *Client) Send(ctx context.Context, msg *goipp.Message, data io.Reader) (*goipp.Message, error) {
	if msg == nil {
		return nil, errors.New("missing ipp message")
	}
	return c.post(ctx, msg, data)
}

func (c *Client) post(ctx context.Context, msg *goipp.Message, data io.Reader) (*goipp.Message, error) {
	payload, err := msg.EncodeBytes()
	if err != nil {
		return nil, err
	}
	body := io.Reader(bytes.NewReader(payload))
	if data != nil {
		body = io.MultiReader(bytes.NewReader(payload), data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.httpURL(requestPath(msg)), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", goipp.ContentType)
	req.Header.Set("Accept", goipp.ContentType)
	if c.User != "" {
		req.SetBasicAuth(c.User, c.Password)
	}

	resp, err := c.http.Do(req)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		return nil, errors.New(resp.Status)
	}
	out := &goipp.Message{}
	if err := out.Decode(resp.Body); err != nil {
		return nil, err
	}
	return out, nil
}

// requestPath maps a request to its HTTP resource: the printer-uri path
// when one is present, the server root otherwise. The CUPS-prefixed
// listing operations always go to the root.
func requestPath(msg *goipp.Message) string {
	switch goipp.Op(msg.Code) {
	case goipp.OpCupsGetPrinters, goipp.OpCupsGetClasses, goipp.OpCupsGetDefault:
		return "/"
	}
	if p, ok := resourcePathFromURI(attrString(msg.Operation, "printer-uri")); ok {
		return p
	}
	return "/"
}

func resourcePathFromURI(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	path := strings.TrimSpace(u.Path)
	if path == "" {
		return "", false
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path, true
}

// statusError converts a failed response code into an error; successful
// codes return nil.
func statusError(resp *goipp.Message) error {
	status := goipp.Status(resp.Code)
	if resp.Code < 0x0100 {
		return nil
	}
	return fmt.Errorf("ipp request failed: %s", status)
}

func tlsConfig(c *Client) *tls.Config {
	skipVerify := false
	if c != nil {
		skipVerify = c.InsecureSkipVerify
	}
	if insecure, ok := parseBoolEnv("CUPS_IPP_INSECURE"); ok {
		skipVerify = insecure
	}
	return &tls.Config{MinVersion: tls.VersionTLS12, InsecureSkipVerify: skipVerify}
}

func attrString(attrs goipp.Attributes, name string) string {
	for _, attr := range attrs {
		if !strings.EqualFold(strings.TrimSpace(attr.Name), strings.TrimSpace(name)) {
			continue
		}
		if len(attr.Values) == 0 {
			return ""
		}
		return strings.TrimSpace(attr.Values[0].V.String())
	}
	return ""
}
