// Package config loads and normalizes the YAML configuration file that
// drives the resolver: listen port, domestic/foreign upstreams, blacklist,
// per-domain routing, and the pin table.
//
// Structure and the normalize-on-load idiom are both grounded on the
// teacher's config.Config/config.Manager (config/config.go,
// config/manager.go) and on original_source/src/config.rs's
// ensure_trailing_dot pass.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"splithorizon/internal/apperrors"
	"splithorizon/internal/dnsname"
)

// Config is the top-level configuration structure, deserialized directly
// from YAML.
type Config struct {
	ServerPort        int                 `yaml:"server_port"`
	DomesticDNS       []string            `yaml:"domestic_dns"`
	ForeignDNS        []string            `yaml:"foreign_dns"`
	Blacklist         []string            `yaml:"blacklist"`
	DomainSpecificDNS map[string][]string `yaml:"domain_specific_dns"`
	CustomDomainIP    map[string]string   `yaml:"custom_domain_ip"`
}

// Load reads and parses path, then normalizes every domain name it carries
// (lowercase + trailing dot) per the wire format the rest of the resolver
// expects.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read config file %q: %v", apperrors.ErrConfig, path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parse config file %q: %v", apperrors.ErrConfig, path, err)
	}

	cfg.normalize()
	return &cfg, nil
}

func (c *Config) normalize() {
	for i, d := range c.Blacklist {
		c.Blacklist[i] = dnsname.Normalize(d)
	}

	for _, domains := range c.DomainSpecificDNS {
		for i, d := range domains {
			domains[i] = dnsname.Normalize(d)
		}
	}

	normalizedPins := make(map[string]string, len(c.CustomDomainIP))
	for domain, ip := range c.CustomDomainIP {
		normalizedPins[dnsname.Normalize(domain)] = ip
	}
	c.CustomDomainIP = normalizedPins
}
