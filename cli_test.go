package main

import (
	"errors"
	"flag"
	"path/filepath"
	"testing"
	"time"
)

func TestParseArgsDefaults(t *testing.T) {
	opts, err := parseArgs(nil)
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if opts.ip != "0.0.0.0" || opts.port != 53 || opts.upstream != "8.8.8.8" {
		t.Errorf("defaults = %+v", opts)
	}
	if opts.timeout != 5000*time.Millisecond {
		t.Errorf("timeout = %v", opts.timeout)
	}
	if opts.dnstapSock != "" || opts.webAddr != "" {
		t.Errorf("optional features on by default: %+v", opts)
	}
}

func TestParseArgsFull(t *testing.T) {
	opts, err := parseArgs([]string{
		"--ip", "127.0.0.1",
		"--port", "5353",
		"--upstream", "1.1.1.1",
		"--timeout", "250",
		"list1.txt", "list2.txt",
	})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if opts.ip != "127.0.0.1" || opts.port != 5353 || opts.upstream != "1.1.1.1" {
		t.Errorf("opts = %+v", opts)
	}
	if opts.timeout != 250*time.Millisecond {
		t.Errorf("timeout = %v", opts.timeout)
	}
	if len(opts.files) != 2 || opts.files[0] != "list1.txt" {
		t.Errorf("files = %v", opts.files)
	}
}

func TestParseArgsErrors(t *testing.T) {
	if _, err := parseArgs([]string{"--bogus"}); err == nil {
		t.Error("unknown option accepted")
	}
	if _, err := parseArgs([]string{"--port"}); err == nil {
		t.Error("missing value accepted")
	}
	if _, err := parseArgs([]string{"--help"}); !errors.Is(err, flag.ErrHelp) {
		t.Error("--help did not surface flag.ErrHelp")
	}
	if _, err := parseArgs([]string{"-h"}); !errors.Is(err, flag.ErrHelp) {
		t.Error("-h did not surface flag.ErrHelp")
	}
}

func TestExpandPath(t *testing.T) {
	t.Setenv("USERPROFILE", "")
	t.Setenv("HOME", "/home/tester")

	tests := []struct {
		in   string
		want string
	}{
		{"~", "/home/tester"},
		{"~/lists/ads.txt", "/home/tester/lists/ads.txt"},
		{"desktop/ads.txt", "/home/tester/Desktop/ads.txt"},
		{"Desktop/ads.txt", "/home/tester/Desktop/ads.txt"},
		{"DOCUMENTS/ads.txt", "/home/tester/Documents/ads.txt"},
		{"downloads/ads.txt", "/home/tester/Downloads/ads.txt"},
		{"plain/ads.txt", "plain/ads.txt"},
		{"/abs/ads.txt", "/abs/ads.txt"},
	}
	for _, tt := range tests {
		if got := expandPath(tt.in); got != filepath.FromSlash(tt.want) {
			t.Errorf("expandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExpandPathPrefersUserProfile(t *testing.T) {
	t.Setenv("USERPROFILE", "/profiles/tester")
	t.Setenv("HOME", "/home/tester")
	if got := expandPath("~/x"); got != filepath.FromSlash("/profiles/tester/x") {
		t.Errorf("expandPath = %q", got)
	}
}
