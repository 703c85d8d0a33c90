package zoneindex

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nexusdns/nexusdns/internal/config"
	"github.com/nexusdns/nexusdns/internal/store"
)

type fakeStore struct {
	nsDomains []string
	records   map[string][]store.Record
}

func (f *fakeStore) DistinctDomainsWithType(recordType string) []string {
	if recordType == "NS" {
		return f.nsDomains
	}
	return nil
}

func (f *fakeStore) Lookup(domain string) []store.Record {
	return f.records[domain]
}

func TestAuthoritativeZonesFromStore(t *testing.T) {
	s := &fakeStore{
		nsDomains: []string{"example.com"},
		records: map[string][]store.Record{
			"example.com": {
				{RecordType: "NS", Value: "ns1.example.com."},
				{RecordType: "NS", Value: "ns2.example.com."},
				{RecordType: "SOA", Value: "ns1.example.com. hostmaster.example.com. 1 10800 3600 604800 86400"},
			},
		},
	}

	zones := AuthoritativeZones(s, &config.Config{})
	require.Len(t, zones, 1)
	require.Equal(t, "example.com", zones[0].Name)
	require.Len(t, zones[0].NSRecords, 2)
	require.NotEmpty(t, zones[0].SOARecord)
}

func TestAuthoritativeZonesSynthesizedFromConfig(t *testing.T) {
	s := &fakeStore{}
	cfg := &config.Config{
		DefaultDomain: "example.com",
		NSRecords:     []string{"ns1.example.com.", "ns2.example.com."},
	}

	zones := AuthoritativeZones(s, cfg)
	require.Len(t, zones, 1)
	require.Equal(t, "example.com", zones[0].Name)
	require.Contains(t, zones[0].SOARecord, "ns1.example.com.")
}

func TestClosestParentZoneExactAndSuffix(t *testing.T) {
	zones := []Zone{{Name: "example.com"}}

	z, ok := ClosestParentZone("example.com.", zones)
	require.True(t, ok)
	require.Equal(t, "example.com", z.Name)

	z, ok = ClosestParentZone("www.example.com.", zones)
	require.True(t, ok)
	require.Equal(t, "example.com", z.Name)

	_, ok = ClosestParentZone("other.org.", zones)
	require.False(t, ok)
}
