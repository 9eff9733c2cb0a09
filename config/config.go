package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-co-op/gocron"
	"github.com/hotdogs-ns/hns/schema"
	"gopkg.in/yaml.v3"
)

type Config struct {
	RpcUrl         string `yaml:"rpcUrl"`
	ManagerAddress string `yaml:"managerAddress"`
	PrivateKey     string `yaml:"privateKey"` // optional, enables writes
	ChainId        int64  `yaml:"chainId"`
	CallTimeoutMs  int64  `yaml:"callTimeoutMs"`

	Port       string `yaml:"port"`
	MetricPort string `yaml:"metricPort"`

	LogLevel  string `yaml:"logLevel"`
	SentryDsn string `yaml:"sentryDsn"`
	Env       string `yaml:"env"`

	RateLimit   int      `yaml:"rateLimit"`
	RatePeriod  string   `yaml:"ratePeriod"` // S, M, H, D
	IpWhitelist []string `yaml:"ipWhitelist"`

	BoltDir  string `yaml:"boltDir"`
	MongoUri string `yaml:"mongoUri"` // replaces bolt when set
	MongoDb  string `yaml:"mongoDb"`

	MysqlDsn        string `yaml:"mysqlDsn"`
	UseSqlite       bool   `yaml:"useSqlite"`
	SqliteDir       string `yaml:"sqliteDir"`
	ArchiveInterval int    `yaml:"archiveInterval"` // minutes

	KafkaUri string `yaml:"kafkaUri"`

	TldRefreshInterval int `yaml:"tldRefreshInterval"` // minutes
	NameCacheTtl       int `yaml:"nameCacheTtl"`       // minutes

	path        string
	ipWhiteList map[string]struct{}
	lock        sync.RWMutex
	scheduler   *gocron.Scheduler
}

func Default() *Config {
	return &Config{
		CallTimeoutMs:      schema.DefaultCallTimeoutMs,
		Port:               ":8080",
		MetricPort:         ":8081",
		LogLevel:           "info",
		Env:                "dev",
		RateLimit:          100,
		RatePeriod:         "M",
		BoltDir:            "./data/bolt",
		MongoDb:            "hns",
		SqliteDir:          "./data/sqlite",
		ArchiveInterval:    5,
		TldRefreshInterval: 10,
		NameCacheTtl:       60,
	}
}

// Load reads a yaml file over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		by, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(by, c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		c.path = path
	}
	c.setWhitelist(c.IpWhitelist)
	return c, nil
}

func (c *Config) Validate() error {
	if c.RpcUrl == "" {
		return fmt.Errorf("%w: rpc url", schema.ErrRpcNotConfigured)
	}
	if !common.IsHexAddress(c.ManagerAddress) {
		return fmt.Errorf("%w: manager address %q", schema.ErrRpcNotConfigured, c.ManagerAddress)
	}
	if c.CallTimeoutMs <= 0 {
		return errors.New("callTimeoutMs must be positive")
	}
	if c.TldRefreshInterval <= 0 || c.ArchiveInterval <= 0 || c.NameCacheTtl <= 0 {
		return errors.New("job intervals and nameCacheTtl must be positive")
	}
	switch strings.ToUpper(c.RatePeriod) {
	case "S", "M", "H", "D":
	default:
		return fmt.Errorf("invalid ratePeriod %q", c.RatePeriod)
	}
	return nil
}

func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutMs) * time.Millisecond
}

// ArchiveEnabled reports whether an SQL archive is configured.
func (c *Config) ArchiveEnabled() bool {
	return c.UseSqlite || c.MysqlDsn != ""
}

func (c *Config) IpWhiteList() map[string]struct{} {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.ipWhiteList
}

func (c *Config) setWhitelist(ips []string) {
	wl := make(map[string]struct{}, len(ips))
	for _, ip := range ips {
		if ip = strings.TrimSpace(ip); ip != "" {
			wl[ip] = struct{}{}
		}
	}
	c.lock.Lock()
	c.ipWhiteList = wl
	c.lock.Unlock()
}

// Run starts reloading the file-backed settings that may change at runtime.
func (c *Config) Run() {
	if c.path == "" {
		return
	}
	c.scheduler = gocron.NewScheduler(time.UTC)
	go c.runJobs()
}

func (c *Config) Close() {
	if c.scheduler != nil {
		c.scheduler.Stop()
	}
}
