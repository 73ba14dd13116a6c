// Package taplog exports handled queries as dnstap frames over a unix
// socket, so any dnstap-speaking collector can ingest this forwarder's
// traffic alongside its other sources.
package taplog

import (
	"log"
	"net"
	"sync/atomic"
	"time"

	dnstap "github.com/dnstap/golang-dnstap"
	framestream "github.com/farsightsec/golang-framestream"
	"google.golang.org/protobuf/proto"
)

const (
	contentType    = "protobuf:dnstap.Dnstap"
	redialInterval = 5 * time.Second
)

// Exporter queues dnstap payloads for a background writer. Enqueue
// never blocks; frames that arrive while the buffer is full are
// counted in Dropped and discarded, so the serial query path never
// waits on the collector.
type Exporter struct {
	SocketPath string
	Dropped    atomic.Uint64

	ch   chan *dnstap.Dnstap
	done chan struct{}
}

func NewExporter(socketPath string, buffer int) *Exporter {
	return &Exporter{
		SocketPath: socketPath,
		ch:         make(chan *dnstap.Dnstap, buffer),
		done:       make(chan struct{}),
	}
}

// Start launches the writer worker.
func (e *Exporter) Start() {
	go e.worker()
}

// Stop closes the queue and waits for the worker to drain it.
func (e *Exporter) Stop() {
	close(e.ch)
	<-e.done
}

// ClientQuery enqueues the raw query bytes as received from client.
func (e *Exporter) ClientQuery(client *net.UDPAddr, msg []byte) {
	e.enqueue(e.frame(dnstap.Message_CLIENT_QUERY, client, msg))
}

// ClientResponse enqueues the raw response bytes sent back to client,
// whether synthesized locally or relayed from upstream.
func (e *Exporter) ClientResponse(client *net.UDPAddr, msg []byte) {
	e.enqueue(e.frame(dnstap.Message_CLIENT_RESPONSE, client, msg))
}

func (e *Exporter) frame(t dnstap.Message_Type, client *net.UDPAddr, msg []byte) *dnstap.Dnstap {
	now := uint64(time.Now().Unix())

	addr := client.IP
	if ip4 := addr.To4(); ip4 != nil {
		addr = ip4
	}

	m := &dnstap.Message{
		Type:           t.Enum(),
		SocketFamily:   dnstap.SocketFamily_INET.Enum(),
		SocketProtocol: dnstap.SocketProtocol_UDP.Enum(),
		QueryAddress:   addr,
		QueryPort:      proto.Uint32(uint32(client.Port)),
	}
	if t == dnstap.Message_CLIENT_QUERY {
		m.QueryTimeSec = proto.Uint64(now)
		m.QueryMessage = append([]byte(nil), msg...)
	} else {
		m.ResponseTimeSec = proto.Uint64(now)
		m.ResponseMessage = append([]byte(nil), msg...)
	}

	return &dnstap.Dnstap{
		Type:    dnstap.Dnstap_MESSAGE.Enum(),
		Message: m,
	}
}

func (e *Exporter) enqueue(frame *dnstap.Dnstap) {
	select {
	case e.ch <- frame:
	default:
		e.Dropped.Add(1)
	}
}

// worker drains the queue into the socket, redialing on any failure.
// Frames that cannot be written while disconnected are dropped.
func (e *Exporter) worker() {
	defer close(e.done)

	var enc *framestream.Encoder
	var conn net.Conn

	disconnect := func() {
		if enc != nil {
			_ = enc.Close()
			enc = nil
		}
		if conn != nil {
			_ = conn.Close()
			conn = nil
		}
	}
	defer disconnect()

	connect := func() bool {
		var err error
		conn, err = net.Dial("unix", e.SocketPath)
		if err != nil {
			conn = nil
			return false
		}
		enc, err = framestream.NewEncoder(conn, &framestream.EncoderOptions{
			ContentType:   []byte(contentType),
			Bidirectional: true,
		})
		if err != nil {
			log.Printf("[WARN] dnstap handshake failed: %v", err)
			_ = conn.Close()
			conn = nil
			return false
		}
		log.Printf("[INFO] dnstap export connected to %s", e.SocketPath)
		return true
	}

	var lastDial time.Time
	for frame := range e.ch {
		if enc == nil {
			// Rate-limit redials so a dead collector costs one
			// timestamp check per frame, not a connect per frame.
			if time.Since(lastDial) < redialInterval {
				e.Dropped.Add(1)
				continue
			}
			lastDial = time.Now()
			if !connect() {
				e.Dropped.Add(1)
				continue
			}
		}

		buf, err := proto.Marshal(frame)
		if err != nil {
			continue
		}
		if _, err := enc.Write(buf); err != nil {
			log.Printf("[WARN] dnstap write failed: %v", err)
			disconnect()
			e.Dropped.Add(1)
			continue
		}
		_ = enc.Flush()
	}
}
