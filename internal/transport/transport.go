// Package transport runs the UDP datagram loop and the TCP
// length-prefixed loop that feed the Resolver, mirroring the
// task-per-query shape of the teacher's internal/transport/fast_udp.go
// worker pool and internal/transport/server.go TCP listener, but built
// directly over net.UDPConn/net.Listener instead of github.com/miekg/dns's
// dns.Server so the hand-rolled codec in internal/dnsmsg stays the single
// source of truth for wire bytes (spec §4.G).
package transport

import (
	"context"
	"encoding/binary"
	"io"
	"log"
	"net"
	"time"

	"github.com/nexusdns/nexusdns/internal/config"
	"github.com/nexusdns/nexusdns/internal/dnsmsg"
	"github.com/nexusdns/nexusdns/internal/metrics"
)

// resolver is the subset of *resolver.Resolver the transport needs; named
// here so tests can substitute a fake without an import cycle back to
// internal/resolver.
type resolver interface {
	Resolve(q *dnsmsg.Query, raw []byte) []byte
}

// Server owns the UDP and TCP listeners and routes every accepted query
// to a Resolver, per spec §4.G/§4.H.
type Server struct {
	Config   *config.Config
	Resolver resolver

	udpConn *net.UDPConn
	tcpLn   net.Listener
}

// New returns a Server bound to cfg.BindAddr and backed by res. Listeners
// are not opened until Serve is called.
func New(cfg *config.Config, res resolver) *Server {
	return &Server{Config: cfg, Resolver: res}
}

// Serve opens the UDP and TCP listeners and runs both loops until ctx is
// canceled. It returns once both loops have stopped.
func (s *Server) Serve(ctx context.Context) error {
	udpConn, err := net.ListenUDP("udp", mustResolveUDP(s.Config.BindAddr))
	if err != nil {
		return err
	}
	s.udpConn = udpConn

	tcpLn, err := net.Listen("tcp", s.Config.BindAddr)
	if err != nil {
		udpConn.Close()
		return err
	}
	s.tcpLn = tcpLn

	done := make(chan struct{}, 2)
	go func() {
		s.serveUDP(ctx)
		done <- struct{}{}
	}()
	go func() {
		s.serveTCP(ctx)
		done <- struct{}{}
	}()

	<-ctx.Done()
	udpConn.Close()
	tcpLn.Close()
	<-done
	<-done
	return nil
}

func mustResolveUDP(addr string) *net.UDPAddr {
	a, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		// BindAddr is validated by config.Load; this only fires on a
		// caller constructing a Server by hand with a bad address.
		log.Printf("transport: invalid bind address %q: %v", addr, err)
		return &net.UDPAddr{Port: 53}
	}
	return a
}

// serveUDP receives datagrams up to Config.MaxPacketSize and spawns an
// independent task per datagram, per spec §4.G / §5's task-per-query
// model. A fatal recv error is logged and the loop continues (spec §7).
func (s *Server) serveUDP(ctx context.Context) {
	buf := make([]byte, s.Config.MaxPacketSize)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, addr, err := s.udpConn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("transport: udp read error: %v", err)
			continue
		}

		query := append([]byte(nil), buf[:n]...)
		go s.handleUDP(query, addr)
	}
}

func (s *Server) handleUDP(query []byte, addr *net.UDPAddr) {
	metrics.QueriesTotal.WithLabelValues("udp").Inc()
	start := time.Now()
	resp, respond := s.process(query)
	metrics.ResolveDuration.WithLabelValues("udp").Observe(time.Since(start).Seconds())
	if !respond {
		return
	}
	if _, err := s.udpConn.WriteToUDP(resp, addr); err != nil {
		log.Printf("transport: udp write to %s failed: %v", addr, err)
	}
}

// serveTCP accepts connections and spawns one task per connection,
// closing after a single length-prefixed exchange (spec §4.G: "no
// pipelining required").
func (s *Server) serveTCP(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		conn, err := s.tcpLn.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("transport: tcp accept error: %v", err)
			continue
		}
		go s.handleTCP(conn)
	}
}

func (s *Server) handleTCP(conn net.Conn) {
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(10 * time.Second))

	lenBuf := make([]byte, 2)
	if _, err := io.ReadFull(conn, lenBuf); err != nil {
		return
	}
	qlen := binary.BigEndian.Uint16(lenBuf)

	query := make([]byte, qlen)
	if _, err := io.ReadFull(conn, query); err != nil {
		return
	}

	metrics.QueriesTotal.WithLabelValues("tcp").Inc()
	start := time.Now()
	resp, respond := s.process(query)
	metrics.ResolveDuration.WithLabelValues("tcp").Observe(time.Since(start).Seconds())
	if !respond {
		return
	}

	framed := make([]byte, 2+len(resp))
	binary.BigEndian.PutUint16(framed, uint16(len(resp)))
	copy(framed[2:], resp)

	if _, err := conn.Write(framed); err != nil {
		log.Printf("transport: tcp write failed: %v", err)
	}
}

// process implements the two wire-level gates common to both transports
// (spec §4.G): header-length gating (silently drop) and OPCODE gating
// (reply NOTIMP without running the Resolver), then delegates to the
// Resolver.
func (s *Server) process(query []byte) (response []byte, respond bool) {
	if len(query) < dnsmsg.HeaderSize {
		return nil, false
	}

	// The OPCODE gate reads the raw flags byte only; it must fire even
	// when the question section is unparseable.
	opcode, err := dnsmsg.Opcode(query)
	if err != nil {
		return nil, false
	}

	if opcode != dnsmsg.OpcodeQuery {
		metrics.ResolutionsTotal.WithLabelValues("notimp").Inc()
		q, err := dnsmsg.ParseQuery(query)
		if err != nil {
			// Header-only NOTIMP: no question echo, no OPT echo.
			h, herr := dnsmsg.DecodeHeader(query)
			if herr != nil {
				return nil, false
			}
			q = &dnsmsg.Query{Header: h}
		}
		return notImp(q), true
	}

	q, err := dnsmsg.ParseQuery(query)
	if err != nil {
		return nil, false
	}

	metrics.ResolutionsTotal.WithLabelValues("resolved").Inc()
	return s.Resolver.Resolve(q, query), true
}

// notImp builds the RCODE=4 reply for any OPCODE != 0, preserving
// QR/RD/OPCODE and echoing OPT if present (spec §4.G).
func notImp(q *dnsmsg.Query) []byte {
	resp := dnsmsg.Response{
		Header: dnsmsg.Header{
			ID:     q.Header.ID,
			QR:     true,
			Opcode: q.Header.Opcode,
			RD:     q.Header.RD,
			RA:     true,
			Rcode:  dnsmsg.RcodeNotImp,
		},
		QuestionRaw: q.QuestionRaw,
	}
	if q.EDNS.Present {
		resp.Additional = append(resp.Additional, dnsmsg.OPTRecord(q.EDNS))
	}
	return resp.Encode()
}
