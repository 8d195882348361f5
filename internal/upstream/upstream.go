// Package upstream implements the upstream DNS client (C4): sends one query
// to one configured upstream and returns its answer section or an error.
//
// The policy engine consumes upstreams only through the Client capability —
// domestic, foreign, and per-domain resolvers are all interchangeable
// implementations of the same one-method interface, per the "polymorphism
// over upstream clients" design note: no inheritance is required.
package upstream

import (
	"context"
	"fmt"
	"net"

	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"

	"splithorizon/internal/apperrors"
)

// Client performs a single stub-resolver lookup. It does not do iterative
// resolution; it sends a query and waits for one reply.
type Client interface {
	Lookup(ctx context.Context, name string, qtype uint16) ([]dns.RR, error)
}

// dnsClient is the concrete Client backed by one or more address:53
// upstreams, queried in configuration order with failover to the next on
// error. It is grounded directly on the teacher's dns.Exchange(r,
// s.Upstream) call in server/dns.go, generalized to accept more than one
// configured address and to honor context cancellation.
type dnsClient struct {
	client    *dns.Client
	addresses []string
	log       *logrus.Entry
}

// New builds a Client backed by the given "host:53" addresses. Honors the
// underlying *dns.Client's default timeout/retry behavior; the core never
// imposes its own per-query timeout.
func New(addresses []string, log *logrus.Entry) Client {
	withPort := make([]string, len(addresses))
	for i, addr := range addresses {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			addr = net.JoinHostPort(addr, "53")
		}
		withPort[i] = addr
	}
	return &dnsClient{
		client:    new(dns.Client),
		addresses: withPort,
		log:       log,
	}
}

func (c *dnsClient) Lookup(ctx context.Context, name string, qtype uint16) ([]dns.RR, error) {
	if len(c.addresses) == 0 {
		return nil, fmt.Errorf("%w: no addresses configured", apperrors.ErrUpstream)
	}

	req := new(dns.Msg)
	req.SetQuestion(name, qtype)
	req.RecursionDesired = true

	var lastErr error
	for _, addr := range c.addresses {
		resp, _, err := c.client.ExchangeContext(ctx, req, addr)
		if err != nil {
			lastErr = err
			if c.log != nil {
				c.log.WithError(err).WithField("upstream", addr).Warn("upstream exchange failed")
			}
			continue
		}
		return resp.Answer, nil
	}
	return nil, fmt.Errorf("%w: all addresses failed: %v", apperrors.ErrUpstream, lastErr)
}
