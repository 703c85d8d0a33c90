// Package forwarder relays unresolved queries to upstream resolvers:
// UDP first, then TCP, trying each configured upstream in order and
// short-circuiting on the first complete reply (spec §4.F). Bytes are
// returned to the caller unmodified; the single permitted mutation (the
// AA-bit clear) is the resolver's responsibility, not this package's.
package forwarder

import (
	"encoding/binary"
	"log"
	"net"
	"time"

	dnserrors "github.com/nexusdns/nexusdns/internal/errors"
)

// UpstreamTimeout is the recommended per-upstream timeout (spec §5/§9:
// "SHOULD impose an explicit per-upstream timeout on the order of 2
// seconds").
const UpstreamTimeout = 2 * time.Second

// Forwarder fans a query out to a fixed, ordered list of upstream
// endpoints.
type Forwarder struct {
	Upstreams []string
}

// New returns a Forwarder over the given ordered upstream endpoints.
func New(upstreams []string) *Forwarder {
	return &Forwarder{Upstreams: upstreams}
}

// Forward tries every upstream over UDP in order, then every upstream
// over TCP in order, returning the first complete reply. ok is false
// only if every upstream failed on both passes.
func (f *Forwarder) Forward(query []byte) (reply []byte, ok bool) {
	if reply, ok := f.forwardUDP(query); ok {
		return reply, true
	}
	if reply, ok := f.forwardTCP(query); ok {
		return reply, true
	}
	log.Printf("forwarder: %v", dnserrors.Wrap(dnserrors.ErrForward, "all upstreams failed on both passes"))
	return nil, false
}

func (f *Forwarder) forwardUDP(query []byte) ([]byte, bool) {
	for _, upstream := range f.Upstreams {
		conn, err := net.DialTimeout("udp", upstream, UpstreamTimeout)
		if err != nil {
			log.Printf("forwarder: udp dial %s failed: %v", upstream, err)
			continue
		}

		conn.SetDeadline(time.Now().Add(UpstreamTimeout))
		if _, err := conn.Write(query); err != nil {
			log.Printf("forwarder: udp write %s failed: %v", upstream, err)
			conn.Close()
			continue
		}

		buf := make([]byte, 65535)
		n, err := conn.Read(buf)
		conn.Close()
		if err != nil {
			log.Printf("forwarder: udp read %s failed: %v", upstream, err)
			continue
		}
		return buf[:n], true
	}
	return nil, false
}

func (f *Forwarder) forwardTCP(query []byte) ([]byte, bool) {
	for _, upstream := range f.Upstreams {
		conn, err := net.DialTimeout("tcp", upstream, UpstreamTimeout)
		if err != nil {
			log.Printf("forwarder: tcp dial %s failed: %v", upstream, err)
			continue
		}
		conn.SetDeadline(time.Now().Add(UpstreamTimeout))

		lengthPrefixed := make([]byte, 2+len(query))
		binary.BigEndian.PutUint16(lengthPrefixed, uint16(len(query)))
		copy(lengthPrefixed[2:], query)

		if _, err := conn.Write(lengthPrefixed); err != nil {
			log.Printf("forwarder: tcp write %s failed: %v", upstream, err)
			conn.Close()
			continue
		}

		lenBuf := make([]byte, 2)
		if _, err := readFull(conn, lenBuf); err != nil {
			conn.Close()
			continue
		}
		replyLen := binary.BigEndian.Uint16(lenBuf)

		reply := make([]byte, replyLen)
		if _, err := readFull(conn, reply); err != nil {
			conn.Close()
			continue
		}
		conn.Close()
		return reply, true
	}
	return nil, false
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
