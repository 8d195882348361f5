// Command splithorizon runs the split-horizon DNS forwarding resolver:
// it loads the CIDR files and YAML configuration, builds the policy
// engine, and serves UDP DNS queries until it receives a shutdown signal.
//
// Wiring order and signal handling are grounded on the teacher's main.go;
// the worker-per-CPU peer fan-out is grounded on original_source/src/
// main.rs's per-num_cpus::get() tokio::spawn loop.
package main

import (
	"context"
	"fmt"
	"net/netip"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"splithorizon/internal/cache"
	"splithorizon/internal/cidrfile"
	"splithorizon/internal/cidrset"
	"splithorizon/internal/config"
	"splithorizon/internal/dnsserver"
	"splithorizon/internal/policy"
	"splithorizon/internal/registry"
	"splithorizon/internal/upstream"
)

const defaultGateSize = 5000

var version = "dev"

func main() {
	cidr4Path := flag.StringP("cidr4", "6", "china_cidr_ipv4.txt", "Path to the IPv4 CIDR file")
	cidr6Path := flag.StringP("cidr6", "4", "", "Optional path to the IPv6 CIDR file")
	configPath := flag.StringP("config", "c", "config.yaml", "Path to the configuration YAML file")
	workers := flag.IntP("workers", "w", defaultWorkerCount(), "Number of UDP server peers to run")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("splithorizon", version)
		return
	}

	log := newLogger()
	log.Info("split-horizon DNS resolver starting")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Error("failed to load configuration")
		os.Exit(1)
	}

	cidrs, err := loadCIDRs(*cidr4Path, *cidr6Path, log)
	if err != nil {
		log.WithError(err).Error("failed to load cidr files")
		os.Exit(1)
	}

	engine, err := buildEngine(cfg, cidrs, log)
	if err != nil {
		log.WithError(err).Error("failed to build policy engine")
		os.Exit(1)
	}

	srv := dnsserver.New(fmt.Sprintf("0.0.0.0:%d", cfg.ServerPort), *workers, defaultGateSize, engine, log.WithField("component", "dnsserver"))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := srv.Run(ctx); err != nil {
			log.WithError(err).Error("dns server failed")
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.WithField("signal", sig).Info("shutting down")
	cancel()
}

func defaultWorkerCount() int {
	n := runtime.NumCPU()
	if n < 1 {
		return 8
	}
	return n
}

func newLogger() *logrus.Entry {
	log := logrus.New()
	level, err := logrus.ParseLevel(envOr("LOG_LEVEL", "warn"))
	if err != nil {
		level = logrus.WarnLevel
	}
	log.SetLevel(level)
	return logrus.NewEntry(log)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func loadCIDRs(cidr4Path, cidr6Path string, log *logrus.Entry) (*cidrset.Set, error) {
	var all []string

	v4, err := cidrfile.Load(cidr4Path)
	if err != nil {
		return nil, err
	}
	all = append(all, v4...)
	log.WithField("count", len(v4)).Info("loaded ipv4 cidrs")

	if cidr6Path != "" {
		v6, err := cidrfile.Load(cidr6Path)
		if err != nil {
			return nil, err
		}
		all = append(all, v6...)
		log.WithField("count", len(v6)).Info("loaded ipv6 cidrs")
	}

	return cidrset.New(all), nil
}

func buildEngine(cfg *config.Config, cidrs *cidrset.Set, log *logrus.Entry) (*policy.Engine, error) {
	domestic := upstream.New(cfg.DomesticDNS, log.WithField("leg", "domestic"))
	foreign := upstream.New(cfg.ForeignDNS, log.WithField("leg", "foreign"))

	reg := registry.New(domestic, foreign)
	for addr, domains := range cfg.DomainSpecificDNS {
		client := upstream.New([]string{addr}, log.WithField("upstream", addr))
		for _, domain := range domains {
			reg.Register(domain, client)
		}
	}

	blacklist := make(map[string]struct{}, len(cfg.Blacklist))
	for _, d := range cfg.Blacklist {
		blacklist[d] = struct{}{}
	}

	pins := make(map[string]netip.Addr, len(cfg.CustomDomainIP))
	for domain, ipStr := range cfg.CustomDomainIP {
		ip, err := netip.ParseAddr(ipStr)
		if err != nil {
			log.WithField("domain", domain).WithField("ip", ipStr).Warn("skipping invalid pinned ip")
			continue
		}
		pins[domain] = ip
	}

	c := cache.New()

	return policy.New(blacklist, pins, c, reg, cidrs, log.WithField("component", "policy")), nil
}
