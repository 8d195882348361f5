package dnsserver

import (
	"context"
	"fmt"
	"net/netip"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"

	"splithorizon/internal/cache"
	"splithorizon/internal/cidrset"
	"splithorizon/internal/policy"
	"splithorizon/internal/registry"
	"splithorizon/internal/upstream"
)

// startFakeUpstream runs a real DNS server that answers every A query with
// ip, so the server-level test exercises the wire path end to end.
func startFakeUpstream(t *testing.T, ip string) (addr string, shutdown func()) {
	t.Helper()
	mux := dns.NewServeMux()
	mux.HandleFunc(".", func(w dns.ResponseWriter, r *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(r)
		if len(r.Question) > 0 {
			rr, _ := dns.NewRR(fmt.Sprintf("%s 60 IN A %s", r.Question[0].Name, ip))
			m.Answer = append(m.Answer, rr)
		}
		_ = w.WriteMsg(m)
	})
	srv := &dns.Server{Addr: "127.0.0.1:0", Net: "udp", Handler: mux}
	started := make(chan struct{})
	srv.NotifyStartedFunc = func() { close(started) }
	go func() { _ = srv.ListenAndServe() }()
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("fake upstream did not start")
	}
	return srv.PacketConn.LocalAddr().String(), func() { _ = srv.Shutdown() }
}

func TestServerEndToEndSplitDecision(t *testing.T) {
	domesticAddr, stopDomestic := startFakeUpstream(t, "1.2.3.4")
	defer stopDomestic()
	foreignAddr, stopForeign := startFakeUpstream(t, "8.8.8.8")
	defer stopForeign()

	log := logrus.NewEntry(logrus.New())
	domestic := upstream.New([]string{domesticAddr}, log)
	foreign := upstream.New([]string{foreignAddr}, log)
	reg := registry.New(domestic, foreign)
	cidrs := cidrset.New([]string{"1.0.0.0/8"})
	c := cache.New()
	defer c.Stop()

	engine := policy.New(nil, map[string]netip.Addr{}, c, reg, cidrs, log)

	srv := New("127.0.0.1:0", 1, 10, engine, log)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = srv.Run(ctx) }()
	time.Sleep(100 * time.Millisecond) // let the peer bind

	if len(srv.peers) != 1 {
		t.Fatalf("expected 1 peer to be bound, got %d", len(srv.peers))
	}
	serverAddr := srv.peers[0].conn.LocalAddr().String()

	client := new(dns.Client)
	m := new(dns.Msg)
	m.SetQuestion("split.test.", dns.TypeA)

	resp, _, err := client.Exchange(m, serverAddr)
	if err != nil {
		t.Fatalf("exchange failed: %v", err)
	}
	if resp.Rcode != dns.RcodeSuccess {
		t.Fatalf("rcode = %d, want success", resp.Rcode)
	}
	if len(resp.Answer) != 1 {
		t.Fatalf("expected 1 answer, got %d", len(resp.Answer))
	}
	a, ok := resp.Answer[0].(*dns.A)
	if !ok || a.A.String() != "1.2.3.4" {
		t.Errorf("expected domestic answer 1.2.3.4, got %v", resp.Answer[0])
	}
}
