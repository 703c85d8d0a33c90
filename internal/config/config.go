// Package config loads the server's immutable configuration from the
// environment, following the same DNS_* surface and defaults as the
// original implementation's config module, with an optional YAML file
// for operators who'd rather not juggle a dozen environment variables.
package config

import (
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	dnserrors "github.com/nexusdns/nexusdns/internal/errors"
)

// DefaultTTL is the cache TTL used when DNS_CACHE_TTL is unset.
const DefaultTTL = 600

// DefaultMaxPacketSize is the UDP buffer size used when DNS_MAX_PACKET_SIZE is unset.
const DefaultMaxPacketSize = 4096

// defaultDSRecord is the preconfigured DS record used when DNS_DS_RECORDS is
// unset, matching the original implementation's hard-coded config.rs
// default so the DS answer path (resolver step 1, QTYPE=43) is reachable
// out of the box instead of always falling through to NXDOMAIN.
const defaultDSRecord = "24550 8 2 D4B7D520E7BB5F0F67674A0CCEB1E3E0614B93C4F9E99B8383F6A1E4469DA50A"

// Config is the server's immutable configuration, shared read-only
// across every handler task for the server's lifetime (spec.md §3).
type Config struct {
	BindAddr       string
	DBPath         string
	CacheTTL       uint64
	EnableIPv6     bool
	MaxPacketSize  int
	Authoritative  bool
	NSRecords      []string
	DefaultDomain  string
	DefaultIP      string
	Forwarders     []string
	// DSRecords and DNSKEYRecords hold the textual forms spec §4.A's
	// encoders expect: "key_tag algorithm digest_type digest_hex" for
	// DS, "flags protocol algorithm base64pubkey" for DNSKEY.
	DSRecords     []string
	DNSKEYRecords []string
}

// fileOverride is the shape of an optional YAML configuration file. Any
// field left empty/zero does not override the corresponding env-derived
// value.
type fileOverride struct {
	BindAddr      string   `yaml:"bind_addr"`
	DBPath        string   `yaml:"db_path"`
	CacheTTL      uint64   `yaml:"cache_ttl"`
	EnableIPv6    *bool    `yaml:"enable_ipv6"`
	MaxPacketSize int      `yaml:"max_packet_size"`
	Authoritative *bool    `yaml:"authoritative"`
	NSRecords     []string `yaml:"ns_records"`
	DefaultDomain string   `yaml:"default_domain"`
	DefaultIP     string   `yaml:"default_ip"`
	Forwarders    []string `yaml:"forwarders"`
	DSRecords     []string `yaml:"ds_records"`
	DNSSECKeyFile string   `yaml:"dnssec_key_file"`
}

// Load builds a Config from the environment, then applies an optional
// YAML override file named by yamlPath (ignored if empty).
func Load(yamlPath string) (*Config, error) {
	cfg := &Config{
		BindAddr:      getEnv("DNS_BIND", "0.0.0.0:53"),
		DBPath:        getEnv("DNS_DB_PATH", "dns.db"),
		CacheTTL:      getEnvUint("DNS_CACHE_TTL", DefaultTTL),
		EnableIPv6:    getEnvBool("DNS_ENABLE_IPV6", false),
		MaxPacketSize: int(getEnvUint("DNS_MAX_PACKET_SIZE", DefaultMaxPacketSize)),
		Authoritative: getEnvBool("DNS_AUTHORITATIVE", false),
		NSRecords:     getEnvList("DNS_NS_RECORDS", []string{"ns1.example.com.", "ns2.example.com."}),
		DefaultDomain: getEnv("DNS_DEFAULT_DOMAIN", "example.com"),
		DefaultIP:     getEnv("DNS_DEFAULT_IP", ""),
		Forwarders:    getEnvList("DNS_FORWARDERS", []string{"8.8.8.8:53", "1.1.1.1:53", "9.9.9.9:53"}),
		DSRecords:     getEnvList("DNS_DS_RECORDS", []string{defaultDSRecord}),
	}

	keyFile := getEnv("DNSSEC_KEY_FILE", "")
	cfg.DNSKEYRecords = loadDNSSECKey(keyFile)

	if yamlPath != "" {
		if err := applyYAMLOverride(cfg, yamlPath); err != nil {
			return nil, err
		}
	}

	if _, _, err := net.SplitHostPort(cfg.BindAddr); err != nil {
		return nil, dnserrors.Wrap(dnserrors.ErrConfig, fmt.Sprintf("invalid DNS_BIND address %q", cfg.BindAddr))
	}

	return cfg, nil
}

// loadDNSSECKey reads a preconfigured DNSKEY textual record from a file.
// A missing or unreadable file is logged and yields no DNSKEY records,
// exactly as the original's from_env does: DNSSEC key material is an
// external collaborator, and its absence must never be fatal.
func loadDNSSECKey(path string) []string {
	if path == "" {
		return nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		log.Printf("config: failed to load DNSSEC key from %s: %v", path, err)
		return nil
	}
	text := strings.TrimSpace(string(content))
	if text == "" {
		return nil
	}
	return []string{text}
}

func applyYAMLOverride(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return dnserrors.Wrap(dnserrors.ErrConfig, "reading config file")
	}
	var f fileOverride
	if err := yaml.Unmarshal(b, &f); err != nil {
		return dnserrors.Wrap(dnserrors.ErrConfig, "parsing config file")
	}

	if f.BindAddr != "" {
		cfg.BindAddr = f.BindAddr
	}
	if f.DBPath != "" {
		cfg.DBPath = f.DBPath
	}
	if f.CacheTTL != 0 {
		cfg.CacheTTL = f.CacheTTL
	}
	if f.EnableIPv6 != nil {
		cfg.EnableIPv6 = *f.EnableIPv6
	}
	if f.MaxPacketSize != 0 {
		cfg.MaxPacketSize = f.MaxPacketSize
	}
	if f.Authoritative != nil {
		cfg.Authoritative = *f.Authoritative
	}
	if len(f.NSRecords) > 0 {
		cfg.NSRecords = f.NSRecords
	}
	if f.DefaultDomain != "" {
		cfg.DefaultDomain = f.DefaultDomain
	}
	if f.DefaultIP != "" {
		cfg.DefaultIP = f.DefaultIP
	}
	if len(f.Forwarders) > 0 {
		cfg.Forwarders = f.Forwarders
	}
	if len(f.DSRecords) > 0 {
		cfg.DSRecords = f.DSRecords
	}
	if f.DNSSECKeyFile != "" {
		cfg.DNSKEYRecords = loadDNSSECKey(f.DNSSECKeyFile)
	}

	return nil
}

func getEnv(name, def string) string {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		return v
	}
	return def
}

func getEnvBool(name string, def bool) bool {
	v, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	return v == "1" || strings.EqualFold(v, "true")
}

func getEnvUint(name string, def uint64) uint64 {
	v, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func getEnvList(name string, def []string) []string {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
