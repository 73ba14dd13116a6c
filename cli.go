package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const usageText = `Usage: ads-blocker [OPTIONS] [BLOCKLIST_FILES...]

Options:
  --ip <addr>        address to bind the listener to (default 0.0.0.0)
  --port <port>      UDP port to listen on (default 53)
  --upstream <addr>  upstream recursive resolver (default 8.8.8.8)
  --timeout <ms>     upstream receive timeout in milliseconds (default 5000)
  --dnstap <path>    unix socket to export dnstap query logs to (default off)
  --web <addr>       listen address for the stats API (default off)
  --help, -h         print this help and exit

Positional arguments are blocklist files, one domain per line. The
shorthands ~/, desktop/, documents/ and downloads/ expand relative to
the home directory.
`

type options struct {
	ip         string
	port       int
	upstream   string
	timeout    time.Duration
	dnstapSock string
	webAddr    string
	files      []string
}

func parseArgs(args []string) (options, error) {
	fs := flag.NewFlagSet("ads-blocker", flag.ContinueOnError)
	fs.SetOutput(io.Discard) // usage is printed by the caller

	var opts options
	var timeoutMS int
	fs.StringVar(&opts.ip, "ip", "0.0.0.0", "")
	fs.IntVar(&opts.port, "port", 53, "")
	fs.StringVar(&opts.upstream, "upstream", "8.8.8.8", "")
	fs.IntVar(&timeoutMS, "timeout", 5000, "")
	fs.StringVar(&opts.dnstapSock, "dnstap", "", "")
	fs.StringVar(&opts.webAddr, "web", "", "")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	opts.timeout = time.Duration(timeoutMS) * time.Millisecond

	for _, arg := range fs.Args() {
		opts.files = append(opts.files, expandPath(arg))
	}
	return opts, nil
}

func homeDir() string {
	if h := os.Getenv("USERPROFILE"); h != "" {
		return h
	}
	if h := os.Getenv("HOME"); h != "" {
		return h
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// Shorthand prefixes are matched case-insensitively.
var shorthands = []struct {
	prefix string
	dir    string
}{
	{"desktop/", "Desktop"},
	{"documents/", "Documents"},
	{"downloads/", "Downloads"},
}

func expandPath(p string) string {
	if p == "~" {
		return homeDir()
	}
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(homeDir(), p[2:])
	}
	lower := strings.ToLower(p)
	for _, sh := range shorthands {
		if strings.HasPrefix(lower, sh.prefix) {
			return filepath.Join(homeDir(), sh.dir, p[len(sh.prefix):])
		}
	}
	return p
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, usageText)
}
