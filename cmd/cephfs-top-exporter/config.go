package main

import (
	"time"

	"github.com/tinytelemetry/cephfs-top-exporter/internal/model"
)

const (
	defaultCephID       = "fstop"
	defaultCephConf     = "/etc/ceph/ceph.conf"
	defaultPort         = model.DefaultPort
	defaultTraceLevel   = "INFO"
	defaultBindHost     = "0.0.0.0"
	defaultInterval     = model.DefaultInterval
	defaultFetchTimeout = model.DefaultFetchTimeout
	defaultCephfsTop    = model.DefaultCephfsTopPath
	defaultMetricPrefix = model.DefaultMetricPrefix
	defaultLogFile      = "CephFS_Top_Exporter.log"
)

// envBindings maps config keys to the environment variables deployments
// already set.
var envBindings = map[string]string{
	"cluster":         "CEPH_CLUSTER",
	"id":              "CEPHFS_TOP_USER_NAME",
	"conffile":        "CEPHFS_TOP_CONFFILE",
	"selftest":        "CEPHFS_TOP_SELFTEST",
	"dumpfs":          "CEPHFS_TOP_DUMPFS",
	"jsondump":        "CEPHFS_TOP_JSONDUMP",
	"port":            "CEPHFS_TOP_EXPORTER_PORT",
	"trace_level":     "CEPHFS_TOP_EXPORTER_TRACE_LEVEL",
	"bind-host":       "CEPHFS_TOP_EXPORTER_BIND_HOST",
	"interval":        "CEPHFS_TOP_EXPORTER_INTERVAL",
	"fetch-timeout":   "CEPHFS_TOP_EXPORTER_FETCH_TIMEOUT",
	"cephfs-top-path": "CEPHFS_TOP_PATH",
	"metric-prefix":   "CEPHFS_TOP_EXPORTER_METRIC_PREFIX",
	"log-file":        "CEPHFS_TOP_EXPORTER_LOG_FILE",
}

// appConfig is internal runtime configuration.
type appConfig struct {
	Cluster       string        `mapstructure:"cluster"`
	ID            string        `mapstructure:"id"`
	ConfFile      string        `mapstructure:"conffile"`
	SelfTest      bool          `mapstructure:"selftest"`
	DumpFS        string        `mapstructure:"dumpfs"`
	JSONDump      string        `mapstructure:"jsondump"`
	Port          int           `mapstructure:"port"`
	TraceLevel    string        `mapstructure:"trace_level"`
	BindHost      string        `mapstructure:"bind-host"`
	Interval      time.Duration `mapstructure:"interval"`
	FetchTimeout  time.Duration `mapstructure:"fetch-timeout"`
	CephfsTopPath string        `mapstructure:"cephfs-top-path"`
	MetricPrefix  string        `mapstructure:"metric-prefix"`
	LogFile       string        `mapstructure:"log-file"`
	Addr          string        `mapstructure:"-"` // derived from bind-host and port
	ConfigPath    string        `mapstructure:"-"` // not from config file
}
