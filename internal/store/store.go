// Package store is the Record Store Adapter: typed lookups against a
// SQLite-backed tabular record store, grounded on the original
// implementation's db.rs (rusqlite) and adapted to Go's database/sql with
// the pure-Go modernc.org/sqlite driver so the module stays cgo-free.
package store

import (
	"database/sql"
	"fmt"
	"log"
	"strings"

	_ "modernc.org/sqlite"

	dnserrors "github.com/nexusdns/nexusdns/internal/errors"
)

// Record is one row of the dns_records table (spec §3/§6).
type Record struct {
	Value      string
	TTL        uint64
	RecordType string
}

const schema = `CREATE TABLE IF NOT EXISTS dns_records (
	domain TEXT NOT NULL,
	record_type TEXT NOT NULL CHECK(record_type IN (
		'A','AAAA','MX','TXT','NS','CNAME','PTR','SOA',
		'SRV','CAA','NAPTR','DS','DNSKEY','RRSIG','NSEC',
		'TLSA','SSHFP'
	)),
	value TEXT NOT NULL,
	ttl INTEGER DEFAULT 3600,
	PRIMARY KEY (domain, record_type, value)
)`

// Store owns the path to the SQLite database; every call opens a
// short-lived connection, matching spec §3's "no shared connection pool"
// ownership rule.
type Store struct {
	path string
}

// Open returns a Store for the database at path, creating the schema
// and seeding default records if the table is empty, per spec §4.B/§6.
func Open(path, defaultDomain, defaultIP string) (*Store, error) {
	s := &Store{path: path}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w: %w", path, err, dnserrors.ErrStore)
	}
	defer db.Close()

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("store: create schema: %w: %w", err, dnserrors.ErrStore)
	}

	var count int64
	if err := db.QueryRow("SELECT COUNT(*) FROM dns_records").Scan(&count); err != nil {
		return nil, fmt.Errorf("store: count rows: %w: %w", err, dnserrors.ErrStore)
	}

	if count == 0 && defaultIP != "" {
		if err := seed(db, defaultDomain, defaultIP); err != nil {
			return nil, fmt.Errorf("store: seed: %w: %w", err, dnserrors.ErrStore)
		}
	}

	return s, nil
}

func seed(db *sql.DB, defaultDomain, defaultIP string) error {
	mailDomain := "mail." + defaultDomain
	ns1 := "ns1." + defaultDomain
	ns2 := "ns2." + defaultDomain
	soa := fmt.Sprintf("%s hostmaster.%s 1 10800 3600 604800 86400", ns1, defaultDomain)

	rows := []struct {
		domain, recordType, value string
	}{
		{defaultDomain, "A", defaultIP},
		{"www." + defaultDomain, "A", defaultIP},
		{"api." + defaultDomain, "A", defaultIP},
		{mailDomain, "A", defaultIP},
		{ns1, "A", defaultIP},
		{ns2, "A", defaultIP},
		{defaultDomain, "MX", "10 " + mailDomain},
		{defaultDomain, "TXT", `"v=spf1 a mx ~all"`},
		{defaultDomain, "NS", ns1},
		{defaultDomain, "NS", ns2},
		{defaultDomain, "SOA", soa},
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare("INSERT OR IGNORE INTO dns_records (domain, record_type, value, ttl) VALUES (?, ?, ?, 3600)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.Exec(r.domain, r.recordType, r.value); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Lookup returns every record stored for domain. Any backend failure is
// swallowed and yields an empty list, per spec §4.B: a transient store
// failure must degrade to NXDOMAIN/forward, never SERVFAIL.
func (s *Store) Lookup(domain string) []Record {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		log.Printf("store: lookup open failed: %v", dnserrors.Wrap(dnserrors.ErrStore, err.Error()))
		return nil
	}
	defer db.Close()

	rows, err := db.Query("SELECT value, ttl, record_type FROM dns_records WHERE domain = ?", domain)
	if err != nil {
		log.Printf("store: lookup query failed: %v", dnserrors.Wrap(dnserrors.ErrStore, err.Error()))
		return nil
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Value, &r.TTL, &r.RecordType); err != nil {
			continue
		}
		out = append(out, r)
	}
	return out
}

// DistinctDomainsWithType returns every distinct domain carrying at least
// one record of recordType (used by the Zone Index to enumerate zones
// via "NS").
func (s *Store) DistinctDomainsWithType(recordType string) []string {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		log.Printf("store: distinct-domains open failed: %v", dnserrors.Wrap(dnserrors.ErrStore, err.Error()))
		return nil
	}
	defer db.Close()

	rows, err := db.Query("SELECT DISTINCT domain FROM dns_records WHERE record_type = ?", recordType)
	if err != nil {
		log.Printf("store: distinct-domains query failed: %v", dnserrors.Wrap(dnserrors.ErrStore, err.Error()))
		return nil
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			continue
		}
		out = append(out, d)
	}
	return out
}

// NormalizeDomain lowercases a wire QNAME (which always carries a
// trailing dot, per the codec's name decoder) and strips that dot to
// match the store's seeded domain convention (spec §6's seed table
// stores "example.com", not "example.com.").
func NormalizeDomain(name string) string {
	name = strings.ToLower(name)
	return strings.TrimSuffix(name, ".")
}
