// Package zoneindex enumerates the authoritative zones this server knows
// about and answers closest-parent-zone queries, grounded on the
// original implementation's db.rs (get_authoritative_zones /
// find_closest_parent_zone) and the teacher's internal/zone name-algebra
// use of github.com/miekg/dns.
package zoneindex

import (
	"fmt"
	"strings"

	"github.com/miekg/dns"

	"github.com/nexusdns/nexusdns/internal/config"
	"github.com/nexusdns/nexusdns/internal/store"
)

// Zone is an authoritative zone aggregate (spec §3).
type Zone struct {
	Name      string
	NSRecords []string
	SOARecord string
}

// recordStore is the subset of *store.Store the index needs; named so
// tests can substitute a fake without touching SQLite.
type recordStore interface {
	DistinctDomainsWithType(recordType string) []string
	Lookup(domain string) []store.Record
}

// AuthoritativeZones returns every zone derivable from the store's NS
// records, or a single synthesized zone from config when the store has
// none (spec §4.C).
func AuthoritativeZones(s recordStore, cfg *config.Config) []Zone {
	domains := s.DistinctDomainsWithType("NS")

	zones := make([]Zone, 0, len(domains))
	for _, domain := range domains {
		zone := Zone{Name: domain}
		for _, rec := range s.Lookup(domain) {
			switch rec.RecordType {
			case "NS":
				zone.NSRecords = append(zone.NSRecords, rec.Value)
			case "SOA":
				if zone.SOARecord == "" {
					zone.SOARecord = rec.Value
				}
			}
		}
		zones = append(zones, zone)
	}

	if len(zones) == 0 {
		ns1 := "ns1.example.com."
		if len(cfg.NSRecords) > 0 {
			ns1 = cfg.NSRecords[0]
		}
		zones = append(zones, Zone{
			Name:      cfg.DefaultDomain,
			NSRecords: cfg.NSRecords,
			SOARecord: fmt.Sprintf("%s hostmaster.%s 1 10800 3600 604800 86400", ns1, cfg.DefaultDomain),
		})
	}

	return zones
}

// ClosestParentZone returns the zone whose name is the longest suffix of
// name, per the suffix-match algorithm in spec §4.C.
func ClosestParentZone(name string, zones []Zone) (Zone, bool) {
	name = strings.TrimSuffix(strings.ToLower(name), ".")
	parts := dns.SplitDomainName(name)
	if parts == nil {
		parts = strings.Split(name, ".")
	}

	for i := range parts {
		candidate := strings.Join(parts[i:], ".")
		for _, z := range zones {
			if z.Name == candidate {
				return z, true
			}
		}
	}

	for _, z := range zones {
		if strings.HasSuffix(name, "."+z.Name) {
			return z, true
		}
	}

	return Zone{}, false
}
