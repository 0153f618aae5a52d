package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"cupsdestgolang/internal/config"
	"cupsdestgolang/internal/cupsclient"
	"cupsdestgolang/internal/dest"
	"cupsdestgolang/internal/logging"
	"cupsdestgolang/internal/model"
)

type options struct {
	printer    string
	server     string
	name       string
	width      int
	length     int
	borderless bool
	duplex     bool
	exact      bool
	ready      bool
	verbose    bool
}

func main() {
	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		fail(err)
	}
	if opts.printer == "" {
		opts.printer = os.Getenv("PRINTER")
	}
	if opts.printer == "" {
		fail(fmt.Errorf("no destination given, use -p"))
	}

	cfg, err := config.Load("")
	if err != nil {
		fail(err)
	}
	level := cfg.LogLevel
	if opts.verbose {
		level = "debug"
	}
	logging.Configure(cfg.LogFile, level, cfg.LogMaxSize)
	log := logging.ToolLogger("destmedia", opts.verbose)

	server := opts.server
	if server == "" {
		server = cfg.Server
	}
	client := cupsclient.NewFromConfig(
		cupsclient.WithServer(server),
		cupsclient.WithUser(cfg.User),
		cupsclient.WithLogger(log),
	)

	ctx := context.Background()
	mem, err := dest.NewCache(1)
	if err != nil {
		fail(err)
	}
	info, err := client.CopyDestInfo(ctx, mem, model.Destination{Name: opts.printer})
	if err != nil {
		fail(err)
	}

	flags := mediaFlags(opts)
	if opts.name == "" && opts.width == 0 {
		listMedia(ctx, info, flags)
		return
	}

	entry, err := info.FindMedia(ctx, opts.name, opts.width, opts.length, flags)
	if err != nil {
		fail(err)
	}
	printEntry(entry)
}

func parseArgs(args []string) (options, error) {
	opts := options{}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-p":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("missing argument for -p")
			}
			i++
			opts.printer = args[i]
		case "-h":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("missing argument for -h")
			}
			i++
			opts.server = args[i]
		case "-s":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("missing argument for -s")
			}
			i++
			w, l, err := parseSize(args[i])
			if err != nil {
				return opts, err
			}
			opts.width, opts.length = w, l
		case "-b":
			opts.borderless = true
		case "-2":
			opts.duplex = true
		case "-e":
			opts.exact = true
		case "-r":
			opts.ready = true
		case "-v":
			opts.verbose = true
		default:
			if strings.HasPrefix(args[i], "-") {
				return opts, fmt.Errorf("unknown option %q", args[i])
			}
			opts.name = args[i]
		}
	}
	return opts, nil
}

// parseSize accepts "WxL" in hundredths of millimeters.
func parseSize(value string) (int, int, error) {
	ws, ls, ok := strings.Cut(value, "x")
	if !ok {
		return 0, 0, fmt.Errorf("size must be WxL, got %q", value)
	}
	w, err1 := strconv.Atoi(strings.TrimSpace(ws))
	l, err2 := strconv.Atoi(strings.TrimSpace(ls))
	if err1 != nil || err2 != nil || w <= 0 || l <= 0 {
		return 0, 0, fmt.Errorf("invalid size %q", value)
	}
	return w, l, nil
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "destmedia:", err)
	os.Exit(2)
}

func mediaFlags(opts options) dest.MediaFlags {
	flags := dest.MediaFlagsDefault
	if opts.borderless {
		flags |= dest.MediaFlagsBorderless
	}
	if opts.duplex {
		flags |= dest.MediaFlagsDuplex
	}
	if opts.exact {
		flags |= dest.MediaFlagsExact
	}
	if opts.ready {
		flags |= dest.MediaFlagsReady
	}
	return flags
}

func listMedia(ctx context.Context, info *dest.Info, flags dest.MediaFlags) {
	count := info.MediaCount(ctx, flags)
	for i := 0; i < count; i++ {
		entry, err := info.MediaByIndex(ctx, i, flags)
		if err != nil {
			continue
		}
		fmt.Printf("%s %dx%d\n", entry.Key, entry.Width, entry.Length)
	}
}

func printEntry(entry *dest.MediaEntry) {
	fmt.Printf("key: %s\n", entry.Key)
	fmt.Printf("size: %dx%d\n", entry.Width, entry.Length)
	fmt.Printf("margins: left=%d right=%d top=%d bottom=%d\n",
		entry.Left, entry.Right, entry.Top, entry.Bottom)
	if entry.Source != "" {
		fmt.Printf("source: %s\n", entry.Source)
	}
	if entry.Type != "" {
		fmt.Printf("type: %s\n", entry.Type)
	}
	fmt.Printf("media-col: %s\n", dest.MediaOptionsString(entry))
}
