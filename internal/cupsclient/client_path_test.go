package cupsclient

import (
	"os"
	"path/filepath"
	"testing"

	goipp "github.com/OpenPrinting/goipp"
)

func TestRequestPath(t *testing.T) {
	tests := []struct {
		op         goipp.Op
		printerURI string
		want       string
	}{
		{op: goipp.OpCupsGetPrinters, want: "/"},
		{op: goipp.OpCupsGetClasses, want: "/"},
		{op: goipp.OpCupsGetDefault, want: "/"},
		{op: goipp.OpGetPrinterAttributes, want: "/"},
		{op: goipp.OpGetPrinterAttributes, printerURI: "ipp://server/printers/Office", want: "/printers/Office"},
		{op: goipp.OpGetPrinterAttributes, printerURI: "ipp://server:631/ipp/print", want: "/ipp/print"},
		// Listing operations stay pinned to the root even with a URI.
		{op: goipp.OpCupsGetPrinters, printerURI: "ipp://server/printers/Office", want: "/"},
	}
	for _, tc := range tests {
		msg := goipp.NewRequest(goipp.DefaultVersion, tc.op, 1)
		if tc.printerURI != "" {
			msg.Operation.Add(goipp.MakeAttribute("printer-uri", goipp.TagURI, goipp.String(tc.printerURI)))
		}
		if got := requestPath(msg); got != tc.want {
			t.Fatalf("op %v uri %q path = %q, want %q", tc.op, tc.printerURI, got, tc.want)
		}
	}
}

func TestPrinterURIEscapesName(t *testing.T) {
	client := &Client{Host: "cups.example.com"}
	if got := client.PrinterURI("Office Laser"); got != "ipp://cups.example.com/printers/Office%20Laser" {
		t.Fatalf("PrinterURI = %q", got)
	}
	if got := client.PrinterURI(""); got != "ipp://cups.example.com/printers/" {
		t.Fatalf("PrinterURI(empty) = %q", got)
	}
}

func TestParseServer(t *testing.T) {
	tests := []struct {
		in     string
		host   string
		port   int
		useTLS bool
	}{
		{"cups.example.com", "cups.example.com", 0, false},
		{"cups.example.com:8631", "cups.example.com", 8631, false},
		{"https://cups.example.com", "cups.example.com", 0, true},
		{"ipps://cups.example.com:631", "cups.example.com", 631, true},
		{"[::1]:631", "::1", 631, false},
	}
	for _, tc := range tests {
		host, port, useTLS := parseServer(tc.in)
		if host != tc.host || port != tc.port || useTLS != tc.useTLS {
			t.Fatalf("parseServer(%q) = %q %d %v, want %q %d %v",
				tc.in, host, port, useTLS, tc.host, tc.port, tc.useTLS)
		}
	}
}

func TestReadClientConf(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "client.conf")
	data := `# local overrides
ServerName cups.example.com:8631  # trailing comment
Encryption Required
User alice
ValidateCerts no
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write conf: %v", err)
	}

	conf := clientConf{}
	readClientConf(path, &conf)
	if conf.serverName != "cups.example.com:8631" {
		t.Fatalf("serverName = %q", conf.serverName)
	}
	if conf.encryption != "Required" {
		t.Fatalf("encryption = %q", conf.encryption)
	}
	if conf.user != "alice" {
		t.Fatalf("user = %q", conf.user)
	}
	if conf.validateCerts == nil || *conf.validateCerts {
		t.Fatalf("validateCerts = %v", conf.validateCerts)
	}
}
