// Package policy implements the request-dispatch pipeline (C5): the
// per-query decision tree over blacklist, pinned IP, cache, specific
// upstream, and the domestic-then-maybe-foreign split.
//
// The decision tree itself is grounded on original_source/src/
// request_handler.rs's handle_request, translated from hickory-dns types to
// github.com/miekg/dns, and on the teacher's engine.Engine.Resolve
// (engine/engine.go) for the overall shape of "walk an ordered list of
// checks, return on the first decisive one".
package policy

import (
	"context"
	"net/netip"

	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"

	"splithorizon/internal/apperrors"
	"splithorizon/internal/cache"
	"splithorizon/internal/cidrset"
	"splithorizon/internal/dnsname"
	"splithorizon/internal/registry"
)

const pinTTL = 300

// Engine holds everything the decision tree consults for a request. All
// fields are shared, read-only-after-construction references except Cache,
// which is internally concurrent-safe.
type Engine struct {
	Blacklist map[string]struct{}
	Pins      map[string]netip.Addr
	Cache     *cache.Cache
	Registry  *registry.Registry
	CIDRs     *cidrset.Set
	Log       *logrus.Entry
}

// New builds an Engine. blacklist and pins must already be normalized
// (lowercased, trailing dot) by the config loader.
func New(blacklist map[string]struct{}, pins map[string]netip.Addr, c *cache.Cache, reg *registry.Registry, cidrs *cidrset.Set, log *logrus.Entry) *Engine {
	return &Engine{
		Blacklist: blacklist,
		Pins:      pins,
		Cache:     c,
		Registry:  reg,
		CIDRs:     cidrs,
		Log:       log,
	}
}

// Handle runs the decision tree for req and returns the response message to
// send back to the client.
func (e *Engine) Handle(ctx context.Context, req *dns.Msg) *dns.Msg {
	if len(req.Question) == 0 {
		e.Log.WithError(apperrors.ErrEmptyQuestion).Debug("rejecting request")
		return respond(req, dns.RcodeFormatError, nil)
	}
	q := req.Question[0]
	name := dnsname.Normalize(q.Name)

	if _, blocked := e.Blacklist[name]; blocked {
		e.Log.WithField("name", name).Debug("blacklist match")
		return respond(req, dns.RcodeNameError, nil)
	}

	if ip, ok := e.Pins[name]; ok {
		return respond(req, dns.RcodeSuccess, []dns.RR{pinRecord(q.Name, q.Qtype, ip)})
	}

	if records, ok := e.Cache.Get(name); ok {
		e.Log.WithField("name", name).Debug("cache hit")
		return respond(req, dns.RcodeSuccess, records)
	}

	if client, ok := e.Registry.Get(name); ok {
		e.Log.WithField("name", name).Debug("specific upstream match")
		records, err := client.Lookup(ctx, q.Name, q.Qtype)
		if err != nil {
			e.Log.WithError(err).WithField("name", name).Warn("specific upstream lookup failed")
			return respond(req, dns.RcodeServerFailure, nil)
		}
		// Specific-upstream answers are never cached: caching here would
		// blur the routing intent the operator configured this entry for.
		return respond(req, dns.RcodeSuccess, records)
	}

	return e.split(ctx, req, q, name)
}

func (e *Engine) split(ctx context.Context, req *dns.Msg, q dns.Question, name string) *dns.Msg {
	domestic, err := e.Registry.Domestic.Lookup(ctx, q.Name, q.Qtype)
	if err != nil {
		e.Log.WithError(err).WithField("name", name).Warn("domestic lookup failed")
		return respond(req, dns.RcodeServerFailure, nil)
	}

	if anyDomestic(domestic, e.CIDRs) {
		e.Log.WithField("name", name).Debug("domestic answer accepted")
		e.Cache.Set(name, domestic)
		return respond(req, dns.RcodeSuccess, domestic)
	}

	foreign, err := e.Registry.Foreign.Lookup(ctx, q.Name, q.Qtype)
	if err != nil {
		e.Log.WithError(err).WithField("name", name).Warn("foreign lookup failed")
		return respond(req, dns.RcodeServerFailure, nil)
	}
	e.Log.WithField("name", name).Debug("foreign answer accepted")
	e.Cache.Set(name, foreign)
	return respond(req, dns.RcodeSuccess, foreign)
}

// anyDomestic reports whether at least one A/AAAA answer in records belongs
// to the CIDR set. An empty or all-non-A/AAAA answer is "not domestic".
func anyDomestic(records []dns.RR, cidrs *cidrset.Set) bool {
	for _, rr := range records {
		var ip netip.Addr
		switch v := rr.(type) {
		case *dns.A:
			ip, _ = netip.AddrFromSlice(v.A.To4())
		case *dns.AAAA:
			ip, _ = netip.AddrFromSlice(v.AAAA.To16())
		default:
			continue
		}
		if ip.IsValid() && cidrs.Contains(ip) {
			return true
		}
	}
	return false
}

func pinRecord(name string, qtype uint16, ip netip.Addr) dns.RR {
	hdr := dns.RR_Header{Name: name, Class: dns.ClassINET, Ttl: pinTTL}

	if qtype == dns.TypeA && ip.Is4() {
		hdr.Rrtype = dns.TypeA
		return &dns.A{Hdr: hdr, A: ip.AsSlice()}
	}
	if qtype == dns.TypeAAAA && ip.Is6() && !ip.Is4In6() {
		hdr.Rrtype = dns.TypeAAAA
		b := ip.As16()
		return &dns.AAAA{Hdr: hdr, AAAA: b[:]}
	}

	hdr.Rrtype = qtype
	return &dns.NULL{Hdr: hdr, Data: ""}
}

func respond(req *dns.Msg, rcode int, answers []dns.RR) *dns.Msg {
	resp := new(dns.Msg)
	resp.SetRcode(req, rcode)
	resp.Authoritative = false
	resp.RecursionDesired = true
	resp.RecursionAvailable = true
	resp.Answer = answers
	return resp
}
