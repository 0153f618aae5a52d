package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"cupsdestgolang/internal/config"
	"cupsdestgolang/internal/discovery"
	"cupsdestgolang/internal/logging"
)

type options struct {
	snmpHost string
	verbose  bool
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
	log := logging.ToolLogger("destdiscover", opts.verbose)

	if opts.snmpHost != "" {
		printSupplies(opts.snmpHost, cfg.SNMPCommunity)
		return
	}

	browser := discovery.NewBrowser(
		discovery.WithTimeout(cfg.DiscoveryTimeout.Std()),
		discovery.WithLogger(log),
	)
	dests, err := browser.Browse(context.Background())
	if err != nil {
		fail(err)
	}
	for _, d := range dests {
		line := d.Name + "\t" + d.URI
		if d.MakeModel != "" {
			line += "\t" + d.MakeModel
		}
		fmt.Println(line)
	}
}

func parseArgs(args []string) (options, error) {
	opts := options{}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-s":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("missing argument for -s")
			}
			i++
			opts.snmpHost = args[i]
		case "-v":
			opts.verbose = true
		default:
			return opts, fmt.Errorf("unknown option %q", args[i])
		}
	}
	return opts, nil
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "destdiscover:", err)
	os.Exit(2)
}

func printSupplies(host, community string) {
	status, err := discovery.QuerySupplies(host, community)
	if err != nil {
		fail(err)
	}
	fmt.Printf("state: %s\n", status.State)
	keys := make([]string, 0, len(status.Details))
	for k := range status.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%s: %s\n", k, status.Details[k])
	}
}
