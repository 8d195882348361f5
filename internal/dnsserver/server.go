// Package dnsserver implements the UDP server (C6): it binds one socket per
// peer with port reuse enabled, reads datagrams, bounds in-flight work with
// a concurrency gate, and spawns a per-request task that parses, resolves,
// and replies.
//
// Shape is grounded on original_source/src/dns_server.rs's DnsServer::run
// (receive loop + owned semaphore permit + spawned task), translated from
// tokio primitives to goroutines, and on the teacher's server.Server
// (server/dns.go) for the surrounding logging and lifecycle conventions.
package dnsserver

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"

	"splithorizon/internal/apperrors"
	"splithorizon/internal/gate"
	"splithorizon/internal/policy"
)

const maxPacketSize = 512

// Server owns one peer per worker, all bound to the same port via
// SO_REUSEPORT, sharing one Policy Engine and one concurrency gate.
type Server struct {
	addr    string
	workers int
	engine  *policy.Engine
	gate    *gate.Gate
	log     *logrus.Entry

	peers []*peer
}

// New builds a Server listening on addr (e.g. "0.0.0.0:53") across workers
// peers, each bounding in-flight requests through a shared gate of
// gateSize slots.
func New(addr string, workers int, gateSize int64, engine *policy.Engine, log *logrus.Entry) *Server {
	if workers < 1 {
		workers = 1
	}
	return &Server{
		addr:    addr,
		workers: workers,
		engine:  engine,
		gate:    gate.New(gateSize),
		log:     log,
	}
}

// Run binds all peers and blocks serving requests until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	lc := net.ListenConfig{Control: reusePortControl}

	for i := 0; i < s.workers; i++ {
		conn, err := lc.ListenPacket(ctx, "udp", s.addr)
		if err != nil {
			return fmt.Errorf("%w: bind peer %d on %s: %v", apperrors.ErrConfig, i, s.addr, err)
		}
		p := &peer{
			id:     i,
			conn:   conn,
			engine: s.engine,
			gate:   s.gate,
			log:    s.log.WithField("peer", i),
		}
		s.peers = append(s.peers, p)
	}

	s.log.WithFields(logrus.Fields{"addr": s.addr, "workers": s.workers}).Info("dns server listening")

	for _, p := range s.peers {
		go p.run(ctx)
	}

	<-ctx.Done()
	s.Close()
	return nil
}

// Close shuts down every peer's socket, unblocking their receive loops.
func (s *Server) Close() {
	for _, p := range s.peers {
		_ = p.conn.Close()
	}
}

type peer struct {
	id     int
	conn   net.PacketConn
	engine *policy.Engine
	gate   *gate.Gate
	log    *logrus.Entry
}

func (p *peer) run(ctx context.Context) {
	buf := make([]byte, maxPacketSize)
	for {
		n, src, err := p.conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			p.log.WithError(err).Warn("failed to receive udp packet")
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])

		release, err := p.gate.Acquire(ctx)
		if err != nil {
			// Context canceled while waiting for a slot; the peer is
			// shutting down.
			return
		}

		go p.handle(ctx, data, src, release)
	}
}

func (p *peer) handle(ctx context.Context, data []byte, src net.Addr, release func()) {
	defer release()
	defer func() {
		if r := recover(); r != nil {
			p.log.WithField("panic", r).Error("recovered panic handling request")
		}
	}()

	req := new(dns.Msg)
	if err := req.Unpack(data); err != nil {
		p.log.WithError(fmt.Errorf("%w: %v", apperrors.ErrParse, err)).Warn("dropping malformed request")
		return
	}

	resp := p.engine.Handle(ctx, req)

	out, err := resp.Pack()
	if err != nil {
		p.log.WithError(fmt.Errorf("%w: %v", apperrors.ErrSerialize, err)).Warn("dropping response")
		return
	}

	if _, err := p.conn.WriteTo(out, src); err != nil {
		p.log.WithError(fmt.Errorf("%w: %v", apperrors.ErrSend, err)).Warn("failed to send response")
		return
	}
}
