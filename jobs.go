package hns

import (
	"context"
	"time"

	"github.com/hotdogs-ns/hns/schema"
)

const jobTimeout = 5 * time.Minute

func (s *Hns) runJobs() {
	s.refreshTlds()
	s.scheduler.Every(s.config.TldRefreshInterval).Minutes().SingletonMode().Do(s.refreshTlds)
	if s.wdb != nil {
		s.scheduler.Every(s.config.ArchiveInterval).Minutes().SingletonMode().Do(s.archiveActivity)
	}

	s.scheduler.StartAsync()
}

// refreshTlds re-enumerates the tlds and persists the snapshot.
// A failed enumeration keeps the previous cache.
func (s *Hns) refreshTlds() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	tlds, err := s.dir.EnumerateTlds(ctx)
	if err != nil {
		log.Error("s.dir.EnumerateTlds", "err", err)
		return
	}
	now := time.Now()
	tldCount.Set(float64(len(tlds)))
	s.cache.UpdateTlds(tlds, now)
	if err := s.store.SaveTlds(tlds, now); err != nil {
		log.Error("s.store.SaveTlds", "err", err)
	}
}

func (s *Hns) archiveActivity() {
	tlds, _ := s.dir.CachedTlds()
	for _, t := range tlds {
		if err := s.archiveTld(t); err != nil {
			log.Error("archive tld failed", "err", err, "tld", t.Tld)
		}
	}
}

// archiveTld stores the events in cursor..head, publishes them and moves the
// cursor to head+1. head is read once per run, so every topic covers the same range.
func (s *Hns) archiveTld(t schema.TldEntry) error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	from, err := s.store.LoadArchiveCursor(t.Tld)
	if err != nil {
		return err
	}
	events, head, err := s.dir.ActivitySince(ctx, t.Contract, t.Tld, from)
	if err != nil {
		return err
	}
	if head < from {
		// node behind the cursor
		return nil
	}
	if len(events) > 0 {
		n, err := s.wdb.InsertEvents(events)
		if err != nil {
			return err
		}
		archivedEvents.WithLabelValues(t.Tld).Add(float64(n))

		if s.kw != nil && n > 0 {
			if err := s.kw.PublishActivity(ctx, s.dir.ManagerAddress().Hex(), events); err != nil {
				log.Error("s.kw.PublishActivity", "err", err, "tld", t.Tld)
			}
		}
	}
	return s.store.SaveArchiveCursor(t.Tld, head+1)
}
