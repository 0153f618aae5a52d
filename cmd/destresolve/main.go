package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"cupsdestgolang/internal/config"
	"cupsdestgolang/internal/cupsclient"
	"cupsdestgolang/internal/dest"
	"cupsdestgolang/internal/logging"
	"cupsdestgolang/internal/model"
)

type options struct {
	printer  string
	server   string
	current  []model.Option
	proposed string
	verbose  bool
}

// Exit codes: 0 no conflict, 1 conflict found (resolution printed when one
// exists), 2 unresolvable or error.
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
	if opts.proposed == "" {
		fail(fmt.Errorf("no proposed option given"))
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
	log := logging.ToolLogger("destresolve", opts.verbose)

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

	name, value, _ := strings.Cut(opts.proposed, "=")
	res, err := info.ResolveConflicts(opts.current, name, value)
	if err != nil {
		for _, c := range res.Conflicts {
			fmt.Printf("conflict: %s\n", c)
		}
		fail(err)
	}

	if !res.Conflicted {
		fmt.Println("no conflicts")
		return
	}
	for _, c := range res.Conflicts {
		fmt.Printf("conflict: %s\n", c)
	}
	for _, opt := range res.Options {
		fmt.Printf("resolve: %s=%s\n", opt.Name, opt.Value)
	}
	os.Exit(1)
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
		case "-o":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("missing argument for -o")
			}
			i++
			opts.current = append(opts.current, dest.ParseOptions(args[i])...)
		case "-v":
			opts.verbose = true
		default:
			if strings.HasPrefix(args[i], "-") {
				return opts, fmt.Errorf("unknown option %q", args[i])
			}
			if opts.proposed != "" {
				return opts, fmt.Errorf("only one proposed option allowed")
			}
			opts.proposed = args[i]
		}
	}
	return opts, nil
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "destresolve:", err)
	os.Exit(2)
}
