package services

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/anthonycoffey/simply-voice/repositories"
)

// StorageJanitor sweeps the blob store on a ticker and removes audio
// objects past retention that no history row references anymore. Deleting a
// record only best-effort-deletes its blob, so orphans accumulate without
// this.
type StorageJanitor struct {
	store     *BlobStore
	repo      repositories.HistoryRepository
	interval  time.Duration
	retention time.Duration
	isRunning int32
}

// Defaults applied when the config leaves the sweep cadence or retention
// unset; a zero interval would panic time.NewTicker.
const (
	defaultSweepInterval = 30 * time.Minute
	defaultRetention     = 30 * 24 * time.Hour
)

func NewStorageJanitor(store *BlobStore, repo repositories.HistoryRepository, interval, retention time.Duration) *StorageJanitor {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if retention <= 0 {
		retention = defaultRetention
	}
	return &StorageJanitor{
		store:     store,
		repo:      repo,
		interval:  interval,
		retention: retention,
	}
}

func (j *StorageJanitor) Start(ctx context.Context) {
	if !atomic.CompareAndSwapInt32(&j.isRunning, 0, 1) {
		return
	}

	go func() {
		defer atomic.StoreInt32(&j.isRunning, 0)

		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		log.Printf("storage janitor started (interval=%s retention=%s)", j.interval, j.retention)
		for {
			select {
			case <-ctx.Done():
				log.Println("storage janitor stopped")
				return
			case <-ticker.C:
				j.sweep()
			}
		}
	}()
}

func (j *StorageJanitor) sweep() {
	cutoff := time.Now().Add(-j.retention)
	removed := 0

	err := j.store.Walk(func(path string, modTime time.Time) error {
		if modTime.After(cutoff) {
			return nil
		}
		referenced, err := j.repo.IsAudioReferenced(path)
		if err != nil {
			log.Printf("janitor: reference check failed for %s: %v", path, err)
			return nil
		}
		if referenced {
			return nil
		}
		owner, ok := ownerOfPath(path)
		if !ok {
			return nil
		}
		if err := j.store.Delete(owner, path); err != nil {
			log.Printf("janitor: delete failed for %s: %v", path, err)
			return nil
		}
		removed++
		return nil
	})
	if err != nil {
		log.Printf("janitor: sweep failed: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("janitor: removed %d orphaned audio object(s)", removed)
	}
}
