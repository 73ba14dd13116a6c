// Package blocklist holds the set of denied domains and the
// hierarchical matching rule applied to queried names.
package blocklist

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	ErrFileNotFound = errors.New("blocklist: file could not be opened")
	ErrParse        = errors.New("blocklist: malformed line")
	ErrEmpty        = errors.New("blocklist: no entries loaded")
)

// List is a set of lowercase bare hostnames. It is populated once at
// startup and read-only afterwards, so the lookup path needs no lock.
type List struct {
	entries map[string]struct{}
}

func New() *List {
	return &List{entries: make(map[string]struct{})}
}

// Add inserts one domain. Duplicates collapse.
func (l *List) Add(domain string) {
	l.entries[strings.ToLower(domain)] = struct{}{}
}

// AddFile loads one domain per line from path, lowercasing each line.
// Empty lines and comment lines are not treated specially; they become
// set members that can never match a queried name.
func (l *List) AddFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		l.Add(sc.Text())
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrParse, path, err)
	}
	return nil
}

func (l *List) Len() int {
	return len(l.entries)
}

// Normalize reduces a queried name or URL-shaped string to a lowercase
// bare hostname: the scheme prefix goes first, then everything from
// the first path, query, port, or fragment separator. Non-ASCII bytes
// pass through untouched; wire names are already A-labels.
func Normalize(s string) string {
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "/?:#"); i >= 0 {
		s = s[:i]
	}
	return strings.ToLower(s)
}

// Match reports whether the normalized name or any parent suffix at a
// label boundary is in the set. Blocking "ads.example.com" therefore
// also catches "sub.ads.example.com". A TLD-only entry matches every
// name under that TLD; keeping such entries out is the operator's job.
func (l *List) Match(name string) bool {
	current := Normalize(name)
	for current != "" {
		if _, ok := l.entries[current]; ok {
			return true
		}
		dot := strings.IndexByte(current, '.')
		if dot < 0 {
			return false
		}
		current = current[dot+1:]
	}
	return false
}
