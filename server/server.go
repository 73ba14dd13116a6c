// Package server owns the two UDP sockets and drives the per-datagram
// pipeline: receive, decode, match against the denylist, then either
// synthesize a blocked response or relay the query upstream verbatim.
package server

import (
	"errors"
	"fmt"
	"log"
	"net"
	"syscall"
	"time"

	"github.com/mohe22/ads-blocker/blocklist"
	"github.com/mohe22/ads-blocker/dnswire"
	"github.com/mohe22/ads-blocker/stats"
	"github.com/mohe22/ads-blocker/taplog"
)

// Config holds the listener parameters.
type Config struct {
	ServerIP string        // local address to bind, IPv4
	Port     int           // UDP port to listen on
	Upstream string        // upstream recursive resolver, IPv4
	Timeout  time.Duration // upstream receive timeout

	// UpstreamPort is 53 everywhere except tests.
	UpstreamPort int
}

// DefaultConfig mirrors the CLI defaults.
func DefaultConfig() Config {
	return Config{
		ServerIP:     "0.0.0.0",
		Port:         53,
		Upstream:     "8.8.8.8",
		Timeout:      5000 * time.Millisecond,
		UpstreamPort: 53,
	}
}

// Listener is the forwarder. Zero value is unbound; Init binds the
// sockets, Run blocks handling queries until Close. Handling is
// serial: one datagram is fully processed, including its upstream
// round trip, before the next is received.
type Listener struct {
	cfg          Config
	conn         *net.UDPConn // client-facing socket
	upstream     *net.UDPConn // upstream-facing socket
	upstreamAddr *net.UDPAddr
	rules        *blocklist.List
	stats        *stats.Stats     // optional
	tap          *taplog.Exporter // optional
}

// New creates a listener over the given denylist. st and tap may be
// nil to disable stats collection and dnstap export.
func New(rules *blocklist.List, st *stats.Stats, tap *taplog.Exporter) *Listener {
	return &Listener{rules: rules, stats: st, tap: tap}
}

// Init binds the client-facing socket and sets up the upstream socket.
// On any failure both sockets are closed and the listener stays
// unbound.
func (l *Listener) Init(cfg Config) error {
	l.cfg = cfg
	l.Close()

	serverIP := net.ParseIP(cfg.ServerIP)
	if serverIP == nil || serverIP.To4() == nil {
		return fmt.Errorf("%w: %q", ErrInvalidIP, cfg.ServerIP)
	}
	upstreamIP := net.ParseIP(cfg.Upstream)
	if upstreamIP == nil || upstreamIP.To4() == nil {
		return fmt.Errorf("%w: %q", ErrInvalidIP, cfg.Upstream)
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: serverIP, Port: cfg.Port})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBind, err)
	}

	upstream, err := net.ListenUDP("udp4", nil)
	if err != nil {
		conn.Close()
		return fmt.Errorf("%w: %v", ErrSocket, err)
	}

	upstreamPort := cfg.UpstreamPort
	if upstreamPort == 0 {
		upstreamPort = 53
	}

	l.conn = conn
	l.upstream = upstream
	l.upstreamAddr = &net.UDPAddr{IP: upstreamIP, Port: upstreamPort}

	log.Printf("[INFO] Listener bound to %s", conn.LocalAddr())
	log.Printf("[INFO] Upstream resolver: %s", l.upstreamAddr)
	return nil
}

// Addr returns the bound client-facing address, or nil before Init.
func (l *Listener) Addr() net.Addr {
	if l.conn == nil {
		return nil
	}
	return l.conn.LocalAddr()
}

// Close releases both sockets. Safe to call at any time; an in-flight
// Run returns after its current receive is interrupted.
func (l *Listener) Close() {
	if l.conn != nil {
		l.conn.Close()
	}
	if l.upstream != nil {
		l.upstream.Close()
	}
}

// Run processes queries until the listener is closed. Errors inside
// one datagram are logged and never end the loop; the only error
// return is ErrNotRunning when Init never succeeded.
func (l *Listener) Run() error {
	if l.conn == nil {
		return ErrNotRunning
	}
	log.Printf("[INFO] Listener running, waiting for queries...")

	// Per-datagram buffers. The loop is serial, so one pair suffices.
	rx := make([]byte, dnswire.MaxPayload)
	urx := make([]byte, dnswire.MaxPayload)

	for {
		err := l.handleQuery(rx, urx)
		if errors.Is(err, net.ErrClosed) {
			return nil
		}
		if err != nil {
			log.Printf("[WARN] handleQuery error: %v", err)
		}
	}
}

func (l *Listener) handleQuery(rx, urx []byte) error {
	n, client, err := l.conn.ReadFromUDP(rx)
	if err != nil {
		if errors.Is(err, net.ErrClosed) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrRecvFail, err)
	}
	raw := rx[:n]

	// A 12-byte header alone carries no question.
	if n < dnswire.HeaderLen+1 {
		l.recordDropped()
		return dnswire.ErrTooShort
	}

	msg, err := dnswire.Parse(raw)
	if err != nil {
		// Dropped silently: a well-behaved stub retries, and a FORMERR
		// to a spoofed source would amplify.
		l.recordDropped()
		return err
	}

	if l.tap != nil {
		l.tap.ClientQuery(client, raw)
	}

	for _, q := range msg.Questions {
		log.Printf("[QUERY] %s asked for: %s (type %d)", client.IP, q.Name, q.Type)

		if l.rules.Match(q.Name) {
			if err := l.sendBlocked(msg, q, client); err != nil {
				l.record(client, q, stats.OutcomeDropped)
				return err
			}
			l.record(client, q, stats.OutcomeBlocked)
			// First matching question answers the whole datagram.
			return nil
		}

		resp, err := l.forward(raw, client, urx)
		if err != nil {
			log.Printf("[WARN] Forward failed for %q: %v", q.Name, err)
			l.record(client, q, stats.OutcomeDropped)
			continue
		}
		if l.tap != nil {
			l.tap.ClientResponse(client, resp)
		}
		l.record(client, q, stats.OutcomeForwarded)
	}

	return nil
}

// sendBlocked turns the query into a blocked response and sends it.
func (l *Listener) sendBlocked(msg *dnswire.Message, q dnswire.Question, client *net.UDPAddr) error {
	blockedResponse(msg, q)

	encoded, err := msg.Encode()
	if err != nil {
		return fmt.Errorf("encoding blocked response for %q: %w", q.Name, err)
	}
	if len(encoded) > dnswire.MaxPayload {
		return fmt.Errorf("%w: blocked response for %q is %d bytes", ErrSendFail, q.Name, len(encoded))
	}

	if _, err := l.conn.WriteToUDP(encoded, client); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFail, err)
	}

	if l.tap != nil {
		l.tap.ClientResponse(client, encoded)
	}
	log.Printf("[BLOCKED] %s, null response sent to %s (%d bytes)", q.Name, client.IP, len(encoded))
	return nil
}

// forward relays the raw query to the upstream resolver and pipes the
// reply straight back to the client. The reply is not parsed or
// rewritten; the transaction id already matches because the query
// bytes went out verbatim.
func (l *Listener) forward(data []byte, client *net.UDPAddr, urx []byte) ([]byte, error) {
	if l.upstream == nil {
		return nil, ErrUpstreamUnreachable
	}

	if _, err := l.upstream.WriteToUDP(data, l.upstreamAddr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnreachable, err)
	}
	log.Printf("[FORWARD] Query sent to upstream %s", l.upstreamAddr.IP)

	// Bound the wait so a dead resolver never stalls the loop.
	if err := l.upstream.SetReadDeadline(time.Now().Add(l.cfg.Timeout)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnreachable, err)
	}
	n, _, err := l.upstream.ReadFromUDP(urx)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, fmt.Errorf("%w: %s", ErrUpstreamTimeout, l.upstreamAddr.IP)
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnreachable, err)
	}
	resp := urx[:n]

	log.Printf("[FORWARD] Response received from upstream %s (%d bytes), relaying to %s",
		l.upstreamAddr.IP, n, client.IP)

	if _, err := l.conn.WriteToUDP(resp, client); err != nil {
		// A previous client that closed its port injects an ICMP
		// error into this socket; the datagram is gone either way, so
		// a connection-reset-style failure counts as delivered.
		if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
			return resp, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrSendFail, err)
	}

	return resp, nil
}

func (l *Listener) record(client *net.UDPAddr, q dnswire.Question, outcome string) {
	if l.stats == nil {
		return
	}
	l.stats.Record(client.IP.String(), blocklist.Normalize(q.Name), dnswire.TypeString(q.Type), outcome)
}

func (l *Listener) recordDropped() {
	if l.stats != nil {
		l.stats.RecordDropped()
	}
}
