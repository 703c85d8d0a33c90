// Package resolver implements the resolution state machine: cache probe,
// store lookup, authoritative NXDOMAIN, and forwarding, assembling
// bit-exact response bytes via internal/dnsmsg. Grounded on the fixed
// step order and header-flag policy of spec §4.E and on the original
// implementation's dns.rs/handlers.rs dispatch shape.
package resolver

import (
	"github.com/nexusdns/nexusdns/internal/answercache"
	"github.com/nexusdns/nexusdns/internal/config"
	"github.com/nexusdns/nexusdns/internal/dnsmsg"
	"github.com/nexusdns/nexusdns/internal/store"
	"github.com/nexusdns/nexusdns/internal/zoneindex"
)

// recordStore is the subset of *store.Store the resolver needs.
type recordStore interface {
	Lookup(domain string) []store.Record
	DistinctDomainsWithType(recordType string) []string
}

// Forwarder hands raw query bytes to upstream resolvers and returns the
// first successful raw reply, or ok=false if every upstream failed.
type Forwarder interface {
	Forward(query []byte) (reply []byte, ok bool)
}

// Resolver ties the cache, store, zone index, and forwarder together to
// answer one query at a time. It holds no per-query state; every call to
// Resolve is independent, matching the task-per-query concurrency model
// (spec §5).
type Resolver struct {
	Cache     *answercache.Cache
	Store     recordStore
	Config    *config.Config
	Forwarder Forwarder
}

// qtypeToRecordType maps a numeric QTYPE to the store's record_type
// string, per the table in spec §4.E step 3.
func qtypeToRecordType(qtype uint16) string {
	switch qtype {
	case dnsmsg.TypeA:
		return "A"
	case dnsmsg.TypeNS:
		return "NS"
	case dnsmsg.TypeCNAME:
		return "CNAME"
	case dnsmsg.TypeSOA:
		return "SOA"
	case dnsmsg.TypePTR:
		return "PTR"
	case dnsmsg.TypeMX:
		return "MX"
	case dnsmsg.TypeTXT:
		return "TXT"
	case dnsmsg.TypeAAAA:
		return "AAAA"
	default:
		return ""
	}
}

// Resolve runs the full state machine from spec §4.E and returns
// finished response bytes. It never returns an error for a well-formed
// query: every branch of the state machine terminates in a response
// (positive answer, NXDOMAIN, or a forwarded/NOTIMP reply upstream of
// this function).
func (r *Resolver) Resolve(q *dnsmsg.Query, raw []byte) []byte {
	domain := store.NormalizeDomain(q.Question.Name)
	qtype := q.Question.Type

	// Step 1: DNSSEC type dispatch.
	if qtype == dnsmsg.TypeDNSKEY {
		return r.answerDNSSEC(q, r.Config.DNSKEYRecords, dnsmsg.TypeDNSKEY, dnsmsg.EncodeDNSKEY)
	}
	if qtype == dnsmsg.TypeDS {
		return r.answerDNSSEC(q, r.Config.DSRecords, dnsmsg.TypeDS, dnsmsg.EncodeDS)
	}

	// Step 2: cache probe for address types.
	if qtype == dnsmsg.TypeA || qtype == dnsmsg.TypeAAAA {
		if ip, ttl, ok := r.Cache.Get(domain); ok {
			rdata, err := dnsmsg.EncodeA(ip)
			if err == nil {
				return r.buildAnswer(q, []dnsmsg.RR{{
					Name: dnsmsg.NamePointer, Type: dnsmsg.TypeA, Class: 1, TTL: uint32(ttl), RData: rdata,
				}}, true)
			}
		}
	}

	// Step 3: store lookup.
	records := r.Store.Lookup(domain)
	wantType := qtypeToRecordType(qtype)

	// Step 4: exact-type match.
	if wantType != "" {
		if resp, ok := r.exactTypeMatch(q, domain, qtype, wantType, records); ok {
			return resp
		}
	}

	// Step 5: A/AAAA fallback to any A record at domain.
	if qtype == dnsmsg.TypeA || qtype == dnsmsg.TypeAAAA {
		for _, rec := range records {
			if rec.RecordType == "A" {
				rdata, err := dnsmsg.EncodeA(rec.Value)
				if err != nil {
					continue
				}
				ttl := rec.TTL
				if ttl == 0 {
					ttl = r.Config.CacheTTL
				}
				r.Cache.Set(domain, rec.Value, ttl)
				return r.buildAnswer(q, []dnsmsg.RR{{
					Name: dnsmsg.NamePointer, Type: dnsmsg.TypeA, Class: 1, TTL: uint32(ttl), RData: rdata,
				}}, true)
			}
		}
	}

	// Step 6: authoritative NXDOMAIN.
	zones := zoneindex.AuthoritativeZones(r.Store, r.Config)
	zone, covered := zoneindex.ClosestParentZone(domain, zones)
	if r.Config.Authoritative && covered {
		return r.buildNXDomain(q, zone, true)
	}

	// Step 7: forward.
	if r.Forwarder != nil {
		if reply, ok := r.Forwarder.Forward(raw); ok && len(reply) >= 1 {
			clearAABit(reply)
			return reply
		}
	}

	// Step 8: final fallback.
	return r.buildNXDomain(q, zone, r.Config.Authoritative && covered)
}

// clearAABit clears bit 0x04 of flags byte 0 (the AA bit) in a raw
// response buffer in place, per spec §4.E step 7 / §4.F.
func clearAABit(msg []byte) {
	if len(msg) >= 3 {
		msg[2] &^= 0x04
	}
}

func (r *Resolver) exactTypeMatch(q *dnsmsg.Query, domain string, qtype uint16, wantType string, records []store.Record) ([]byte, bool) {
	switch wantType {
	case "SOA":
		for _, rec := range records {
			if rec.RecordType == "SOA" {
				rdata := dnsmsg.EncodeSOA(rec.Value)
				return r.buildAnswer(q, []dnsmsg.RR{{
					Name: dnsmsg.NamePointer, Type: dnsmsg.TypeSOA, Class: 1, TTL: uint32(rec.TTL), RData: rdata,
				}}, true), true
			}
		}
	case "NS":
		var rrs []dnsmsg.RR
		for _, rec := range records {
			if rec.RecordType == "NS" {
				rrs = append(rrs, dnsmsg.RR{
					Name: dnsmsg.NamePointer, Type: dnsmsg.TypeNS, Class: 1, TTL: uint32(rec.TTL),
					RData: dnsmsg.EncodeDomainRData(rec.Value),
				})
			}
		}
		if len(rrs) > 0 {
			return r.buildAnswer(q, rrs, false), true
		}
	case "MX":
		for _, rec := range records {
			if rec.RecordType == "MX" {
				return r.buildAnswer(q, []dnsmsg.RR{{
					Name: dnsmsg.NamePointer, Type: dnsmsg.TypeMX, Class: 1, TTL: uint32(rec.TTL),
					RData: dnsmsg.EncodeMX(rec.Value),
				}}, true), true
			}
		}
	case "TXT":
		for _, rec := range records {
			if rec.RecordType == "TXT" {
				return r.buildAnswer(q, []dnsmsg.RR{{
					Name: dnsmsg.NamePointer, Type: dnsmsg.TypeTXT, Class: 1, TTL: uint32(rec.TTL),
					RData: dnsmsg.EncodeTXT(rec.Value),
				}}, true), true
			}
		}
	case "CNAME":
		for _, rec := range records {
			if rec.RecordType == "CNAME" {
				return r.buildAnswer(q, []dnsmsg.RR{{
					Name: dnsmsg.NamePointer, Type: dnsmsg.TypeCNAME, Class: 1, TTL: uint32(rec.TTL),
					RData: dnsmsg.EncodeDomainRData(rec.Value),
				}}, true), true
			}
		}
	case "PTR":
		for _, rec := range records {
			if rec.RecordType == "PTR" {
				return r.buildAnswer(q, []dnsmsg.RR{{
					Name: dnsmsg.NamePointer, Type: dnsmsg.TypePTR, Class: 1, TTL: uint32(rec.TTL),
					RData: dnsmsg.EncodeDomainRData(rec.Value),
				}}, true), true
			}
		}
	case "A", "AAAA":
		for _, rec := range records {
			if rec.RecordType == wantType {
				rdata, err := dnsmsg.EncodeA(rec.Value)
				if err != nil {
					continue
				}
				ttl := rec.TTL
				if wantType == "A" {
					r.Cache.Set(domain, rec.Value, ttl)
				}
				return r.buildAnswer(q, []dnsmsg.RR{{
					Name: dnsmsg.NamePointer, Type: dnsmsg.TypeA, Class: 1, TTL: uint32(ttl), RData: rdata,
				}}, true), true
			}
		}
	}
	return nil, false
}

// answerDNSSEC builds a DNSKEY/DS answer from preconfigured material, or
// falls back to NXDOMAIN when none is configured (spec §4.E step 1).
func (r *Resolver) answerDNSSEC(q *dnsmsg.Query, records []string, qtype uint16, encode func(string) ([]byte, error)) []byte {
	if len(records) == 0 {
		zones := zoneindex.AuthoritativeZones(r.Store, r.Config)
		zone, covered := zoneindex.ClosestParentZone(store.NormalizeDomain(q.Question.Name), zones)
		return r.buildNXDomain(q, zone, r.Config.Authoritative && covered)
	}
	rdata, err := encode(records[0])
	if err != nil {
		zones := zoneindex.AuthoritativeZones(r.Store, r.Config)
		zone, covered := zoneindex.ClosestParentZone(store.NormalizeDomain(q.Question.Name), zones)
		return r.buildNXDomain(q, zone, r.Config.Authoritative && covered)
	}
	return r.buildAnswer(q, []dnsmsg.RR{{
		Name: dnsmsg.NamePointer, Type: qtype, Class: 1, TTL: 3600, RData: rdata,
	}}, false)
}

// buildAnswer assembles a positive-answer response. withAuthorityNS adds
// the two configured NS records to the authority section when the
// server is authoritative, per the NSCOUNT rule in spec §4.E.
func (r *Resolver) buildAnswer(q *dnsmsg.Query, answers []dnsmsg.RR, withAuthorityNS bool) []byte {
	resp := dnsmsg.Response{
		Header: dnsmsg.Header{
			ID:     q.Header.ID,
			QR:     true,
			Opcode: q.Header.Opcode,
			RD:     q.Header.RD,
			RA:     true,
			Rcode:  dnsmsg.RcodeSuccess,
		},
		QuestionRaw: q.QuestionRaw,
		Answer:      answers,
	}

	if r.Config.Authoritative {
		resp.Header.AA = true
		if withAuthorityNS {
			for _, ns := range r.Config.NSRecords {
				resp.Authority = append(resp.Authority, dnsmsg.RR{
					Name: dnsmsg.NamePointer, Type: dnsmsg.TypeNS, Class: 1, TTL: 3600,
					RData: dnsmsg.EncodeDomainRData(ns),
				})
			}
		}
	}

	if q.EDNS.Present {
		resp.Additional = append(resp.Additional, dnsmsg.OPTRecord(q.EDNS))
	}

	return resp.Encode()
}

// buildNXDomain assembles an NXDOMAIN response with the covering zone's
// SOA and NS records in the authority section, per spec §4.E steps 6/8.
func (r *Resolver) buildNXDomain(q *dnsmsg.Query, zone zoneindex.Zone, authoritative bool) []byte {
	resp := dnsmsg.Response{
		Header: dnsmsg.Header{
			ID:     q.Header.ID,
			QR:     true,
			Opcode: q.Header.Opcode,
			AA:     authoritative,
			RD:     q.Header.RD,
			RA:     true,
			Rcode:  dnsmsg.RcodeNXDomain,
		},
		QuestionRaw: q.QuestionRaw,
	}

	if zone.Name != "" {
		if zone.SOARecord != "" {
			resp.Authority = append(resp.Authority, dnsmsg.RR{
				Name: dnsmsg.NamePointer, Type: dnsmsg.TypeSOA, Class: 1, TTL: 3600,
				RData: dnsmsg.EncodeSOA(zone.SOARecord),
			})
		}
		for _, ns := range zone.NSRecords {
			resp.Authority = append(resp.Authority, dnsmsg.RR{
				Name: dnsmsg.NamePointer, Type: dnsmsg.TypeNS, Class: 1, TTL: 3600,
				RData: dnsmsg.EncodeDomainRData(ns),
			})
		}
	}

	if q.EDNS.Present {
		resp.Additional = append(resp.Additional, dnsmsg.OPTRecord(q.EDNS))
	}

	return resp.Encode()
}
