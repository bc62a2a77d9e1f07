package main

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Build variables - set by ldflags during build.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

func main() {
	flags := newFlagSet()
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if showVersion, _ := flags.GetBool("version"); showVersion {
		fmt.Printf("CephFS Top Exporter\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := runServer(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("cephfs-top-exporter", pflag.ContinueOnError)

	fs.String("config", "", "optional YAML config file")
	fs.Bool("version", false, "print version information")

	fs.String("cluster", "", "Ceph cluster name passed to cephfs-top")
	fs.String("id", defaultCephID, "Ceph client id passed to cephfs-top")
	fs.String("conffile", defaultCephConf, "ceph.conf path passed to cephfs-top")
	fs.Bool("selftest", false, "run cephfs-top in selftest mode")
	fs.String("dumpfs", "", "restrict the dump to one filesystem")
	fs.String("jsondump", "", "read snapshots from this JSON file instead of running cephfs-top")
	fs.Int("port", defaultPort, "port to serve /metrics on")
	fs.String("trace_level", defaultTraceLevel, "log level: DEBUG, INFO or ERROR")
	fs.String("bind-host", defaultBindHost, "address to bind the HTTP server to")
	fs.Duration("interval", defaultInterval, "time to sleep between collection cycles")
	fs.Duration("fetch-timeout", defaultFetchTimeout, "upper bound for one cephfs-top run")
	fs.String("cephfs-top-path", defaultCephfsTop, "path to the cephfs-top binary")
	fs.String("metric-prefix", defaultMetricPrefix, "prefix for discovered series names")
	fs.String("log-file", defaultLogFile, "append logs to this file as well as stderr; empty disables")

	return fs
}

func loadConfig(flags *pflag.FlagSet) (appConfig, error) {
	var cfg appConfig

	v := viper.New()
	v.SetDefault("cluster", "")
	v.SetDefault("id", defaultCephID)
	v.SetDefault("conffile", defaultCephConf)
	v.SetDefault("selftest", false)
	v.SetDefault("dumpfs", "")
	v.SetDefault("jsondump", "")
	v.SetDefault("port", defaultPort)
	v.SetDefault("trace_level", defaultTraceLevel)
	v.SetDefault("bind-host", defaultBindHost)
	v.SetDefault("interval", defaultInterval)
	v.SetDefault("fetch-timeout", defaultFetchTimeout)
	v.SetDefault("cephfs-top-path", defaultCephfsTop)
	v.SetDefault("metric-prefix", defaultMetricPrefix)
	v.SetDefault("log-file", defaultLogFile)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return cfg, errors.Wrapf(err, "bind %s", env)
		}
	}

	configPath, _ := flags.GetString("config")
	for key := range envBindings {
		if f := flags.Lookup(key); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return cfg, errors.Wrapf(err, "bind --%s", key)
			}
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return cfg, errors.Wrapf(err, "read config %s", configPath)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	cfg.ConfigPath = v.ConfigFileUsed()

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return cfg, errors.Newf("invalid port: %d", cfg.Port)
	}
	if cfg.Interval <= 0 {
		return cfg, errors.Newf("invalid interval: %s", cfg.Interval)
	}
	if cfg.FetchTimeout <= 0 {
		return cfg, errors.Newf("invalid fetch-timeout: %s", cfg.FetchTimeout)
	}
	cfg.TraceLevel = strings.ToUpper(strings.TrimSpace(cfg.TraceLevel))
	cfg.Addr = net.JoinHostPort(cfg.BindHost, strconv.Itoa(cfg.Port))

	return cfg, nil
}
