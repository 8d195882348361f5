package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/miekg/dns"
)

func aRecord(name string, ttl uint32, ip string) dns.RR {
	rr, err := dns.NewRR(fmt.Sprintf("%s %d IN A %s", name, ttl, ip))
	if err != nil {
		panic(err)
	}
	return rr
}

func TestSetGetRoundTrip(t *testing.T) {
	c := New()
	defer c.Stop()

	records := []dns.RR{aRecord("example.com.", 60, "1.2.3.4")}
	c.Set("example.com.", records)

	got, ok := c.Get("example.com.")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(got) != 1 || got[0].String() != records[0].String() {
		t.Errorf("round trip mismatch: got %v, want %v", got, records)
	}
}

func TestGetMissOnUnknownName(t *testing.T) {
	c := New()
	defer c.Stop()

	if _, ok := c.Get("nowhere.test."); ok {
		t.Error("expected miss for unknown name")
	}
}

func TestSetEmptyRecordsIsNoop(t *testing.T) {
	c := New()
	defer c.Stop()

	c.Set("empty.test.", nil)
	if _, ok := c.Get("empty.test."); ok {
		t.Error("empty record set must never be stored")
	}
}

func TestExpiryRemovesEntry(t *testing.T) {
	c := New()
	defer c.Stop()

	c.Set("short.test.", []dns.RR{aRecord("short.test.", 0, "1.1.1.1")})

	time.Sleep(10 * time.Millisecond)

	if _, ok := c.Get("short.test."); ok {
		t.Error("expected entry with ttl 0 to be expired immediately")
	}
}

func TestMinTTLAcrossRecords(t *testing.T) {
	c := New()
	defer c.Stop()

	records := []dns.RR{
		aRecord("multi.test.", 100, "1.1.1.1"),
		aRecord("multi.test.", 1, "2.2.2.2"),
	}
	c.Set("multi.test.", records)

	if _, ok := c.Get("multi.test."); !ok {
		t.Fatal("expected immediate hit before short ttl elapses")
	}

	time.Sleep(1200 * time.Millisecond)

	if _, ok := c.Get("multi.test."); ok {
		t.Error("expected entry to expire after the shortest record ttl")
	}
}
