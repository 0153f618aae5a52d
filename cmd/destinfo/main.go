package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"cupsdestgolang/internal/config"
	"cupsdestgolang/internal/cupsclient"
	"cupsdestgolang/internal/dest"
	"cupsdestgolang/internal/destcache"
	"cupsdestgolang/internal/logging"
	"cupsdestgolang/internal/model"
)

// snapshotTTL is how long a persisted capability snapshot stays usable
// before destinfo refetches from the server.
const snapshotTTL = 5 * time.Minute

type options struct {
	printer    string
	server     string
	list       bool
	defaults   bool
	checks     []string
	save       []string
	remove     bool
	setDefault bool
	verbose    bool
	refresh    bool
}

func main() {
	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		fail(err)
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
	log := logging.ToolLogger("destinfo", opts.verbose)

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

	// A broken on-disk cache never blocks a live query; every path below
	// tolerates cache == nil.
	cache, err := destcache.Open(ctx, cfg.CachePath)
	if err != nil {
		log.Debug().Err(err).Str("path", cfg.CachePath).Msg("destination cache unavailable")
		cache = nil
	} else {
		defer cache.Close()
	}

	if opts.list {
		if err := listDestinations(ctx, client); err != nil {
			fail(err)
		}
		return
	}

	if opts.printer == "" {
		opts.printer = defaultPrinter(ctx, cache)
	}
	if opts.printer == "" {
		fail(fmt.Errorf("no destination given, use -p"))
	}
	name, instance, _ := strings.Cut(opts.printer, "/")

	if opts.setDefault {
		if cache == nil {
			fail(fmt.Errorf("no destination cache to record the default in"))
		}
		if err := cache.SetDefaultDestination(ctx, name, instance); err != nil {
			fail(err)
		}
		return
	}
	if opts.remove {
		if cache == nil {
			return
		}
		if err := cache.RemoveOptions(ctx, name, instance); err != nil {
			fail(err)
		}
		return
	}
	if len(opts.save) > 0 {
		if err := saveOptions(ctx, cache, name, instance, opts.save); err != nil {
			fail(err)
		}
		return
	}

	info, err := loadInfo(ctx, client, cache, opts)
	if err != nil {
		fail(err)
	}

	if len(opts.checks) > 0 {
		ok := true
		for _, check := range opts.checks {
			optName, value, _ := strings.Cut(check, "=")
			supported := info.CheckSupported(optName, value)
			fmt.Printf("%s: %v\n", check, supported)
			if !supported {
				ok = false
			}
		}
		if !ok {
			os.Exit(1)
		}
		return
	}

	if opts.defaults {
		for _, opt := range mergedDefaults(ctx, cache, name, instance, info) {
			fmt.Printf("%s=%s\n", opt.Name, opt.Value)
		}
		return
	}

	printSummary(ctx, info)
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
		case "-e":
			opts.list = true
		case "-l":
			opts.defaults = true
		case "-c":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("missing argument for -c")
			}
			i++
			opts.checks = append(opts.checks, args[i])
		case "-o":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("missing argument for -o")
			}
			i++
			opts.save = append(opts.save, args[i])
		case "-r":
			opts.remove = true
		case "-d":
			opts.setDefault = true
		case "-f":
			opts.refresh = true
		case "-v":
			opts.verbose = true
		default:
			return opts, fmt.Errorf("unknown option %q", args[i])
		}
	}
	return opts, nil
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "destinfo:", err)
	os.Exit(2)
}

// defaultPrinter resolves the destination to use when -p is absent: the
// PRINTER/CUPS_PRINTER environment first, then the cached user default.
func defaultPrinter(ctx context.Context, cache *destcache.Cache) string {
	if env := os.Getenv("PRINTER"); env != "" {
		return env
	}
	if env := os.Getenv("CUPS_PRINTER"); env != "" {
		return env
	}
	if cache != nil {
		if name, instance, ok, err := cache.DefaultDestination(ctx); err == nil && ok {
			if instance != "" {
				return name + "/" + instance
			}
			return name
		}
	}
	return ""
}

func listDestinations(ctx context.Context, client *cupsclient.Client) error {
	dests, err := client.Destinations(ctx)
	if err != nil {
		return err
	}
	for _, d := range dests {
		line := d.Name
		if d.Info != "" {
			line += "\t" + d.Info
		}
		if d.URI != "" {
			line += "\t" + d.URI
		}
		fmt.Println(line)
	}
	return nil
}

// saveOptions records name=value pairs as the user's saved defaults for
// the destination, replacing any previous set.
func saveOptions(ctx context.Context, cache *destcache.Cache, name, instance string, pairs []string) error {
	if cache == nil {
		return fmt.Errorf("no destination cache to save options in")
	}
	saved := dest.ParseOptions(strings.Join(pairs, " "))
	if len(saved) == 0 {
		return fmt.Errorf("no options to save")
	}
	return cache.SaveOptions(ctx, name, instance, saved)
}

// mergedDefaults overlays the user's saved options on the printer's own
// defaults; a saved option wins over the printer value of the same name.
func mergedDefaults(ctx context.Context, cache *destcache.Cache, name, instance string, info *dest.Info) []model.Option {
	merged := append([]model.Option(nil), info.DefaultOptions()...)
	if cache == nil {
		return merged
	}
	saved, err := cache.SavedOptions(ctx, name, instance)
	if err != nil {
		return merged
	}
	for _, opt := range saved {
		replaced := false
		for i := range merged {
			if merged[i].Name == opt.Name {
				merged[i] = opt
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, opt)
		}
	}
	return merged
}

// loadInfo serves the capability snapshot from the on-disk cache when it is
// fresh, asking the server otherwise.
func loadInfo(ctx context.Context, client *cupsclient.Client, cache *destcache.Cache, opts options) (*dest.Info, error) {
	dst := model.Destination{Name: opts.printer}
	if name, instance, ok := strings.Cut(opts.printer, "/"); ok {
		dst.Name, dst.Instance = name, instance
	}

	if cache == nil {
		return fetchInfo(ctx, client, dst)
	}

	uri := client.PrinterURI(dst.Name)
	if !opts.refresh {
		if attrs, _, ok, err := cache.GetSnapshot(ctx, uri, snapshotTTL); err == nil && ok {
			return dest.NewInfo(dst, attrs, dest.WithReadyFetcher(client)), nil
		}
	}
	info, err := fetchInfo(ctx, client, dst)
	if err != nil {
		return nil, err
	}
	_ = cache.PutSnapshot(ctx, uri, info.Attributes(), time.Now())
	return info, nil
}

func fetchInfo(ctx context.Context, client *cupsclient.Client, dst model.Destination) (*dest.Info, error) {
	mem, err := dest.NewCache(1)
	if err != nil {
		return nil, err
	}
	return client.CopyDestInfo(ctx, mem, dst)
}

func printSummary(ctx context.Context, info *dest.Info) {
	fmt.Printf("destination %s\n", info.Dest.FullName())
	fmt.Printf("  attributes: %d\n", len(info.Attributes()))
	fmt.Printf("  media sizes: %d\n", info.MediaCount(ctx, dest.MediaFlagsDefault))
	fmt.Printf("  borderless sizes: %d\n", info.MediaCount(ctx, dest.MediaFlagsBorderless))
	fmt.Printf("  default options: %d\n", len(info.DefaultOptions()))
}
