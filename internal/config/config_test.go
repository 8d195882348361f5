package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadNormalizesDomains(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlContent := `
server_port: 5353
domestic_dns:
  - 114.114.114.114
foreign_dns:
  - 8.8.8.8
blacklist:
  - ADS.Example.com
domain_specific_dns:
  10.0.0.53:
    - "*.Corp.Internal"
custom_domain_ip:
  Router.LAN: 10.0.0.1
`
	if err := os.WriteFile(path, []byte(yamlContent), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ServerPort != 5353 {
		t.Errorf("server_port = %d, want 5353", cfg.ServerPort)
	}
	if cfg.Blacklist[0] != "ads.example.com." {
		t.Errorf("blacklist[0] = %q, want ads.example.com.", cfg.Blacklist[0])
	}
	if cfg.DomainSpecificDNS["10.0.0.53"][0] != "*.corp.internal." {
		t.Errorf("domain_specific_dns entry = %q, want *.corp.internal.", cfg.DomainSpecificDNS["10.0.0.53"][0])
	}
	if _, ok := cfg.CustomDomainIP["router.lan."]; !ok {
		t.Errorf("expected normalized pin key router.lan., got keys %v", keys(cfg.CustomDomainIP))
	}
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
