package hns

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron"
	"github.com/gorilla/handlers"
	"github.com/hotdogs-ns/hns/common"
	"github.com/hotdogs-ns/hns/config"
	"github.com/hotdogs-ns/hns/directory"
	"github.com/panjf2000/ants/v2"
)

var log = common.NewLog("hns")

const activityPoolSize = 16

type Hns struct {
	dir    *directory.Client
	store  *Store
	wdb    *Wdb     // nil when the archive is disabled
	kw     *KWriter // nil without kafka
	cache  *Cache
	config *config.Config

	engine    *gin.Engine
	server    *http.Server
	scheduler *gocron.Scheduler
	pool      *ants.Pool
}

// New opens the sync store and, when configured, the archive and kafka writer.
func New(cfg *config.Config, dir *directory.Client) (*Hns, error) {
	var (
		store *Store
		err   error
	)
	if cfg.MongoUri != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		store, err = NewMongoStore(ctx, cfg.MongoUri, cfg.MongoDb)
		cancel()
	} else {
		store, err = NewBoltStore(cfg.BoltDir)
	}
	if err != nil {
		return nil, err
	}

	var wdb *Wdb
	if cfg.ArchiveEnabled() {
		if cfg.UseSqlite {
			wdb, err = NewSqliteDb(cfg.SqliteDir)
		} else {
			wdb, err = NewMysqlDb(cfg.MysqlDsn)
		}
		if err != nil {
			store.Close()
			return nil, err
		}
		if err = wdb.Migrate(); err != nil {
			store.Close()
			return nil, err
		}
	}

	var kw *KWriter
	if cfg.KafkaUri != "" {
		kw = NewKWriter(ActivityTopic, cfg.KafkaUri)
	}
	return newHns(cfg, dir, store, wdb, kw)
}

func newHns(cfg *config.Config, dir *directory.Client, store *Store, wdb *Wdb, kw *KWriter) (*Hns, error) {
	pool, err := ants.NewPool(activityPoolSize)
	if err != nil {
		return nil, err
	}
	tlds, at, err := store.LoadTlds()
	if err != nil {
		log.Warn("load tld snapshot failed", "err", err)
		tlds, at = nil, time.Time{}
	}
	s := &Hns{
		dir:       dir,
		store:     store,
		wdb:       wdb,
		kw:        kw,
		cache:     NewCache(tlds, at),
		config:    cfg,
		engine:    gin.Default(),
		scheduler: gocron.NewScheduler(time.UTC),
		pool:      pool,
	}
	s.routes()
	return s, nil
}

func (s *Hns) Run(port string) {
	s.config.Run()
	go s.runAPI(port)
	go s.runJobs()
}

// Handler is the api with panic recovery and proxy header handling.
func (s *Hns) Handler() http.Handler {
	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(handlers.ProxyHeaders(s.engine))
}

func (s *Hns) runAPI(port string) {
	s.server = &http.Server{
		Addr:              port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info("hns api listening", "port", port)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("api server stopped", "err", err)
		os.Exit(1)
	}
}

func (s *Hns) Close() {
	s.scheduler.Stop()
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.server.Shutdown(ctx); err != nil {
			log.Error("api shutdown", "err", err)
		}
		cancel()
	}
	s.pool.Release()
	if s.kw != nil {
		s.kw.Close()
	}
	if s.wdb != nil {
		s.wdb.Close()
	}
	if err := s.store.Close(); err != nil {
		log.Error("close store", "err", err)
	}
	s.config.Close()
	s.dir.Close()
}
