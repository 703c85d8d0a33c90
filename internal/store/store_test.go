package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenSeedsEmptyStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dns.db")

	_, err := Open(path, "example.com", "10.0.0.1")
	require.NoError(t, err)

	s := &Store{path: path}
	records := s.Lookup("example.com")
	require.NotEmpty(t, records)

	var hasA, hasMX, hasTXT, hasSOA bool
	var nsCount int
	for _, r := range records {
		switch r.RecordType {
		case "A":
			hasA = true
		case "MX":
			hasMX = true
		case "TXT":
			hasTXT = true
		case "SOA":
			hasSOA = true
		case "NS":
			nsCount++
		}
	}
	require.True(t, hasA)
	require.True(t, hasMX)
	require.True(t, hasTXT)
	require.True(t, hasSOA)
	require.Equal(t, 2, nsCount)
}

func TestOpenDoesNotReseedWhenNonEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dns.db")

	_, err := Open(path, "example.com", "10.0.0.1")
	require.NoError(t, err)
	_, err = Open(path, "example.com", "10.0.0.2")
	require.NoError(t, err)

	s := &Store{path: path}
	records := s.Lookup("example.com")
	for _, r := range records {
		if r.RecordType == "A" {
			require.Equal(t, "10.0.0.1", r.Value)
		}
	}
}

func TestLookupMissingDomainReturnsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dns.db")
	_, err := Open(path, "example.com", "10.0.0.1")
	require.NoError(t, err)

	s := &Store{path: path}
	records := s.Lookup("nowhere.invalid")
	require.Empty(t, records)
}

func TestLookupBadPathReturnsEmptyNotError(t *testing.T) {
	s := &Store{path: "/nonexistent/dir/dns.db"}
	require.Empty(t, s.Lookup("example.com"))
	require.Empty(t, s.DistinctDomainsWithType("NS"))
}

func TestDistinctDomainsWithType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dns.db")
	_, err := Open(path, "example.com", "10.0.0.1")
	require.NoError(t, err)

	s := &Store{path: path}
	domains := s.DistinctDomainsWithType("NS")
	require.Equal(t, []string{"example.com"}, domains)
}

func TestNormalizeDomain(t *testing.T) {
	require.Equal(t, "example.com", NormalizeDomain("Example.COM."))
}
