package resolver

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nexusdns/nexusdns/internal/answercache"
	"github.com/nexusdns/nexusdns/internal/config"
	"github.com/nexusdns/nexusdns/internal/dnsmsg"
	"github.com/nexusdns/nexusdns/internal/store"
)

type fakeStore struct {
	records   map[string][]store.Record
	nsDomains []string
}

func (f *fakeStore) Lookup(domain string) []store.Record { return f.records[domain] }
func (f *fakeStore) DistinctDomainsWithType(t string) []string {
	if t == "NS" {
		return f.nsDomains
	}
	return nil
}

type fakeForwarder struct {
	reply []byte
	ok    bool
}

func (f *fakeForwarder) Forward(query []byte) ([]byte, bool) { return f.reply, f.ok }

func buildQuery(t *testing.T, name string, qtype uint16, id uint16, opt bool) ([]byte, *dnsmsg.Query) {
	t.Helper()
	h := dnsmsg.Header{ID: id, RD: true, QDCount: 1}
	if opt {
		h.ARCount = 1
	}
	buf := dnsmsg.EncodeHeader(h)
	buf = append(buf, dnsmsg.EncodeName(name)...)
	buf = append(buf, byte(qtype>>8), byte(qtype), 0x00, 0x01)
	if opt {
		buf = append(buf, 0x00, 0x00, 41, 0x04, 0xD0, 0x00, 0x00, 0x80, 0x00, 0x00, 0x00)
	}
	q, err := dnsmsg.ParseQuery(buf)
	require.NoError(t, err)
	return buf, q
}

func TestScenario1CachedAHit(t *testing.T) {
	cache := answercache.New()
	cache.Set("example.com", "10.0.0.1", 60)

	r := &Resolver{
		Cache: cache,
		Store: &fakeStore{},
		Config: &config.Config{
			Authoritative: true,
			NSRecords:     []string{"ns1.example.com.", "ns2.example.com."},
		},
	}

	raw, q := buildQuery(t, "example.com.", dnsmsg.TypeA, 0xBEEF, false)
	resp := r.Resolve(q, raw)

	h, err := dnsmsg.DecodeHeader(resp)
	require.NoError(t, err)
	require.Equal(t, uint16(0xBEEF), h.ID)
	require.True(t, h.QR)
	require.True(t, h.AA)
	require.True(t, h.RD)
	require.Equal(t, uint16(1), h.ANCount)
	require.Equal(t, uint16(2), h.NSCount)
}

func TestScenario2AuthoritativeNXDOMAIN(t *testing.T) {
	r := &Resolver{
		Cache: answercache.New(),
		Store: &fakeStore{},
		Config: &config.Config{
			Authoritative: true,
			DefaultDomain: "example.com",
			NSRecords:     []string{"ns1.example.com.", "ns2.example.com."},
		},
	}

	raw, q := buildQuery(t, "missing.example.com.", dnsmsg.TypeA, 1, false)
	resp := r.Resolve(q, raw)

	h, err := dnsmsg.DecodeHeader(resp)
	require.NoError(t, err)
	require.Equal(t, uint8(dnsmsg.RcodeNXDomain), h.Rcode)
	require.True(t, h.AA)
	require.Equal(t, uint16(0), h.ANCount)
	require.Equal(t, uint16(3), h.NSCount) // 1 SOA + 2 NS
}

func TestScenario3NonAuthoritativeForwardClearsAABit(t *testing.T) {
	upstream := dnsmsg.EncodeHeader(dnsmsg.Header{ID: 7, QR: true, AA: true, RD: true, RA: true, QDCount: 1})
	upstream = append(upstream, []byte("fixed-upstream-bytes")...)

	r := &Resolver{
		Cache:     answercache.New(),
		Store:     &fakeStore{},
		Config:    &config.Config{Authoritative: false},
		Forwarder: &fakeForwarder{reply: append([]byte(nil), upstream...), ok: true},
	}

	raw, q := buildQuery(t, "unknown.example.net.", dnsmsg.TypeA, 7, false)
	resp := r.Resolve(q, raw)

	require.Equal(t, byte(0), resp[2]&0x04)
	want := append([]byte(nil), upstream...)
	want[2] &^= 0x04
	require.Equal(t, want, resp)
}

func TestScenario5EDNSEcho(t *testing.T) {
	r := &Resolver{
		Cache: answercache.New(),
		Store: &fakeStore{
			nsDomains: nil,
			records: map[string][]store.Record{
				"example.com": {{RecordType: "A", Value: "10.0.0.1", TTL: 3600}},
			},
		},
		Config: &config.Config{Authoritative: false},
	}

	raw, q := buildQuery(t, "example.com.", dnsmsg.TypeA, 9, true)
	resp := r.Resolve(q, raw)

	h, err := dnsmsg.DecodeHeader(resp)
	require.NoError(t, err)
	require.Equal(t, uint16(1), h.ARCount)
}

func TestScenario6MultipleNSAnswers(t *testing.T) {
	r := &Resolver{
		Cache: answercache.New(),
		Store: &fakeStore{
			records: map[string][]store.Record{
				"example.com": {
					{RecordType: "NS", Value: "ns1.example.com.", TTL: 3600},
					{RecordType: "NS", Value: "ns2.example.com.", TTL: 3600},
				},
			},
		},
		Config: &config.Config{Authoritative: true},
	}

	raw, q := buildQuery(t, "example.com.", dnsmsg.TypeNS, 11, false)
	resp := r.Resolve(q, raw)

	h, err := dnsmsg.DecodeHeader(resp)
	require.NoError(t, err)
	require.Equal(t, uint16(2), h.ANCount)
}
