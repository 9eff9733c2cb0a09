package hns

import (
	"context"
	"sync"

	"github.com/hotdogs-ns/hns/directory"
	"github.com/hotdogs-ns/hns/schema"
)

// collectActivity fetches the activity of every tld on the worker pool and
// merges it newest first. A tld that fails is logged and left out.
func (s *Hns) collectActivity(ctx context.Context, tlds []schema.TldEntry) []schema.ActivityEvent {
	var (
		wg     sync.WaitGroup
		lock   sync.Mutex
		events = make([]schema.ActivityEvent, 0)
	)
	for _, t := range tlds {
		t := t
		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			evs, err := s.dir.Activity(ctx, t.Contract, t.Tld)
			if err != nil {
				log.Error("s.dir.Activity", "err", err, "tld", t.Tld)
				return
			}
			lock.Lock()
			events = append(events, evs...)
			lock.Unlock()
		})
		if err != nil {
			wg.Done()
			log.Error("s.pool.Submit", "err", err, "tld", t.Tld)
		}
	}
	wg.Wait()
	directory.SortEvents(events)
	return events
}
