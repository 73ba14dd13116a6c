package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mohe22/ads-blocker/blocklist"
	"github.com/mohe22/ads-blocker/dashboard"
	"github.com/mohe22/ads-blocker/server"
	"github.com/mohe22/ads-blocker/stats"
	"github.com/mohe22/ads-blocker/taplog"
)

func main() {
	opts, err := parseArgs(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		printUsage(os.Stdout)
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ads-blocker: %v\n", err)
		printUsage(os.Stderr)
		os.Exit(1)
	}

	rules := blocklist.New()
	for _, path := range opts.files {
		if err := rules.AddFile(path); err != nil {
			log.Printf("[WARN] Could not load blocklist file %s: %v", path, err)
		}
	}
	if rules.Len() == 0 {
		log.Printf("[WARN] Blocklist is empty, every query will be forwarded")
	} else {
		log.Printf("[INFO] Blocklist loaded, %d entries total", rules.Len())
	}

	var st *stats.Stats
	if opts.webAddr != "" {
		st = stats.New()
	}

	var tap *taplog.Exporter
	if opts.dnstapSock != "" {
		tap = taplog.NewExporter(opts.dnstapSock, 1024)
		tap.Start()
	}

	srv := server.New(rules, st, tap)
	cfg := server.Config{
		ServerIP: opts.ip,
		Port:     opts.port,
		Upstream: opts.upstream,
		Timeout:  opts.timeout,
	}
	if err := srv.Init(cfg); err != nil {
		log.Fatalf("[ERROR] %v", err)
	}

	if opts.webAddr != "" {
		log.Printf("[INFO] Stats API on %s", opts.webAddr)
		go dashboard.Serve(st, opts.webAddr)
	}

	go func() {
		if err := srv.Run(); err != nil {
			log.Fatalf("[ERROR] %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigChan
	log.Printf("[INFO] Received signal %v, shutting down...", sig)

	srv.Close()
	if tap != nil {
		tap.Stop()
	}
	log.Printf("[INFO] Shutdown complete")
}
