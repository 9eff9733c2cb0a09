package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hotdogs-ns/hns"
	"github.com/hotdogs-ns/hns/cache"
	"github.com/hotdogs-ns/hns/common"
	"github.com/hotdogs-ns/hns/config"
	"github.com/hotdogs-ns/hns/directory"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "hns",
		Usage: "HotDogs Name Service directory api",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "yaml config file", EnvVars: []string{"HNS_CONFIG"}},
			&cli.StringFlag{Name: "rpc_url", Usage: "chain json-rpc endpoint", EnvVars: []string{"RPC_URL", "ABSTRACT_RPC_URL"}},
			&cli.StringFlag{Name: "manager", Usage: "hns manager contract address", EnvVars: []string{"HNS_MANAGER_ADDRESS"}},
			&cli.StringFlag{Name: "private_key", Usage: "hex key, enables writes", EnvVars: []string{"HNS_PRIVATE_KEY"}},
			&cli.Int64Flag{Name: "chain_id", Usage: "0 asks the node", EnvVars: []string{"CHAIN_ID"}},
			&cli.StringFlag{Name: "port", EnvVars: []string{"PORT"}},
			&cli.StringFlag{Name: "metric_port", EnvVars: []string{"METRIC_PORT"}},
			&cli.StringFlag{Name: "db_dir", Usage: "bolt db dir path", EnvVars: []string{"DB_DIR"}},
			&cli.StringFlag{Name: "mongo_uri", Usage: "use mongodb instead of bolt", EnvVars: []string{"MONGO_URI"}},
			&cli.StringFlag{Name: "mysql", Usage: "mysql dsn, enables the activity archive", EnvVars: []string{"MYSQL"}},
			&cli.BoolFlag{Name: "use_sqlite", Usage: "archive to sqlite instead of mysql", EnvVars: []string{"USE_SQLITE"}},
			&cli.StringFlag{Name: "sqlite_dir", EnvVars: []string{"SQLITE_DIR"}},
			&cli.StringFlag{Name: "kafka_uri", EnvVars: []string{"KAFKA_URI"}},
			&cli.StringFlag{Name: "log_level", EnvVars: []string{"LOG_LEVEL"}},
			&cli.StringFlag{Name: "sentry_dsn", EnvVars: []string{"SENTRY_DSN"}},
		},
		Action: run,
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

// loadConfig layers flags and env over the yaml file.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	overlay := func(name string, dst *string) {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}
	overlay("rpc_url", &cfg.RpcUrl)
	overlay("manager", &cfg.ManagerAddress)
	overlay("private_key", &cfg.PrivateKey)
	overlay("port", &cfg.Port)
	overlay("metric_port", &cfg.MetricPort)
	overlay("db_dir", &cfg.BoltDir)
	overlay("mongo_uri", &cfg.MongoUri)
	overlay("mysql", &cfg.MysqlDsn)
	overlay("sqlite_dir", &cfg.SqliteDir)
	overlay("kafka_uri", &cfg.KafkaUri)
	overlay("log_level", &cfg.LogLevel)
	overlay("sentry_dsn", &cfg.SentryDsn)
	if c.IsSet("chain_id") {
		cfg.ChainId = c.Int64("chain_id")
	}
	if c.IsSet("use_sqlite") {
		cfg.UseSqlite = c.Bool("use_sqlite")
	}
	return cfg, cfg.Validate()
}

func run(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := common.SetLogLevel(cfg.LogLevel); err != nil {
		return err
	}
	if err := common.InitSentry(cfg.SentryDsn, cfg.Env); err != nil {
		return err
	}

	names, err := cache.NewNames(time.Duration(cfg.NameCacheTtl) * time.Minute)
	if err != nil {
		return err
	}
	defer names.Close()
	ctx, cancel := context.WithTimeout(c.Context, 30*time.Second)
	dir, err := directory.Dial(ctx, directory.DialConfig{
		RpcUrl:         cfg.RpcUrl,
		ManagerAddress: cfg.ManagerAddress,
		PrivateKey:     cfg.PrivateKey,
		ChainId:        cfg.ChainId,
		Timeout:        cfg.CallTimeout(),
	}, directory.WithNameCache(names))
	cancel()
	if err != nil {
		return err
	}

	s, err := hns.New(cfg, dir)
	if err != nil {
		dir.Close()
		return err
	}
	common.NewMetricServer(cfg.MetricPort)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	s.Run(cfg.Port)

	<-signals
	s.Close()
	return nil
}
