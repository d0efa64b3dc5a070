package services

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"dataexplorer/internal/config"
	"dataexplorer/internal/dataset"
	"dataexplorer/internal/infrastructure"
	"dataexplorer/pkg/contracts/domain"
)

// Removal reasons passed to the registry callback
const (
	RemovedDeleted  = "deleted"
	RemovedExpired  = "expired"
	RemovedEvicted  = "evicted"
	RemovedShutdown = "shutdown"
)

// Dataset is one uploaded table. Frame is the raw upload and is never mutated.
type Dataset struct {
	Info  domain.DatasetInfo
	Frame *dataset.Frame
	Hash  string

	lastAccess time.Time
}

// DatasetRegistry keeps uploads in memory. Access extends a dataset's
// lifetime by the TTL; when the registry is full the oldest upload goes.
type DatasetRegistry struct {
	datasets    map[string]*Dataset
	mutex       sync.RWMutex
	ttl         time.Duration
	maxDatasets int
	onRemove    func(Dataset, string)
	metrics     *infrastructure.BusinessMetrics
	logger      *slog.Logger
	now         func() time.Time
	stopChan    chan struct{}
	stopOnce    sync.Once
}

// NewDatasetRegistry creates a registry and starts its janitor
func NewDatasetRegistry(cfg config.DatasetsConfig, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *DatasetRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &DatasetRegistry{
		datasets:    make(map[string]*Dataset),
		ttl:         cfg.TTL,
		maxDatasets: cfg.MaxDatasets,
		metrics:     metrics,
		logger:      logger.With(slog.String("component", "dataset_registry")),
		now:         time.Now,
		stopChan:    make(chan struct{}),
	}

	interval := cfg.CleanupInterval
	if interval <= 0 {
		interval = maxCleanupInterval
	}
	go r.janitor(interval)

	return r
}

// OnRemove registers the callback invoked after a dataset leaves the registry.
// It runs outside the registry lock.
func (r *DatasetRegistry) OnRemove(fn func(ds Dataset, reason string)) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.onRemove = fn
}

// Add stores a dataset, evicting the oldest uploads when the registry is full
func (r *DatasetRegistry) Add(ctx context.Context, ds *Dataset) Dataset {
	r.mutex.Lock()
	now := r.now()
	ds.lastAccess = now
	ds.Info.UploadedAt = now
	ds.Info.ExpiresAt = r.expiry(now)

	var evicted []Dataset
	for r.maxDatasets > 0 && len(r.datasets) >= r.maxDatasets {
		oldest := r.oldest()
		if oldest == nil {
			break
		}
		delete(r.datasets, oldest.Info.ID)
		evicted = append(evicted, *oldest)
	}
	r.datasets[ds.Info.ID] = ds
	snapshot := *ds
	r.mutex.Unlock()

	r.record(ctx, 1)
	for _, e := range evicted {
		r.logger.InfoContext(ctx, "dataset evicted",
			slog.String("dataset_id", e.Info.ID),
			slog.String("name", e.Info.Name))
		r.removed(ctx, e, RemovedEvicted)
	}
	return snapshot
}

// Get returns a snapshot of a live dataset and extends its lifetime
func (r *DatasetRegistry) Get(ctx context.Context, id string) (Dataset, bool) {
	r.mutex.Lock()
	ds, ok := r.datasets[id]
	if !ok {
		r.mutex.Unlock()
		return Dataset{}, false
	}
	now := r.now()
	if r.expired(ds, now) {
		delete(r.datasets, id)
		expired := *ds
		r.mutex.Unlock()
		r.removed(ctx, expired, RemovedExpired)
		return Dataset{}, false
	}
	ds.lastAccess = now
	ds.Info.ExpiresAt = r.expiry(now)
	snapshot := *ds
	r.mutex.Unlock()
	return snapshot, true
}

// Delete removes a dataset; it reports whether one was removed
func (r *DatasetRegistry) Delete(ctx context.Context, id string) bool {
	r.mutex.Lock()
	ds, ok := r.datasets[id]
	if ok {
		delete(r.datasets, id)
	}
	r.mutex.Unlock()

	if ok {
		r.removed(ctx, *ds, RemovedDeleted)
	}
	return ok
}

// List returns the info of every live dataset, newest first
func (r *DatasetRegistry) List() []domain.DatasetInfo {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	now := r.now()
	out := make([]domain.DatasetInfo, 0, len(r.datasets))
	for _, ds := range r.datasets {
		if r.expired(ds, now) {
			continue
		}
		out = append(out, ds.Info)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UploadedAt.After(out[j].UploadedAt)
	})
	return out
}

// Len returns the number of stored datasets
func (r *DatasetRegistry) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.datasets)
}

// HasHash reports whether any stored dataset has the content hash
func (r *DatasetRegistry) HasHash(hash string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	for _, ds := range r.datasets {
		if ds.Hash == hash {
			return true
		}
	}
	return false
}

// Sweep removes expired datasets and returns how many were removed
func (r *DatasetRegistry) Sweep(ctx context.Context) int {
	r.mutex.Lock()
	now := r.now()
	var expired []Dataset
	for id, ds := range r.datasets {
		if r.expired(ds, now) {
			delete(r.datasets, id)
			expired = append(expired, *ds)
		}
	}
	r.mutex.Unlock()

	for _, ds := range expired {
		r.logger.InfoContext(ctx, "dataset expired",
			slog.String("dataset_id", ds.Info.ID),
			slog.String("name", ds.Info.Name))
		r.removed(ctx, ds, RemovedExpired)
	}
	return len(expired)
}

// Stop stops the janitor and drops every dataset
func (r *DatasetRegistry) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopChan)

		r.mutex.Lock()
		all := make([]Dataset, 0, len(r.datasets))
		for _, ds := range r.datasets {
			all = append(all, *ds)
		}
		r.datasets = make(map[string]*Dataset)
		r.mutex.Unlock()

		for _, ds := range all {
			r.removed(context.Background(), ds, RemovedShutdown)
		}
	})
}

func (r *DatasetRegistry) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Sweep(context.Background())
		case <-r.stopChan:
			return
		}
	}
}

func (r *DatasetRegistry) removed(ctx context.Context, ds Dataset, reason string) {
	r.record(ctx, -1)
	if r.metrics != nil && reason != RemovedDeleted && reason != RemovedShutdown {
		r.metrics.DatasetEvictions.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	}

	r.mutex.RLock()
	fn := r.onRemove
	r.mutex.RUnlock()
	if fn != nil {
		fn(ds, reason)
	}
}

func (r *DatasetRegistry) record(ctx context.Context, delta int64) {
	if r.metrics != nil {
		r.metrics.DatasetsActive.Add(ctx, delta)
	}
}

func (r *DatasetRegistry) expired(ds *Dataset, now time.Time) bool {
	return r.ttl > 0 && now.Sub(ds.lastAccess) > r.ttl
}

func (r *DatasetRegistry) expiry(now time.Time) time.Time {
	if r.ttl <= 0 {
		return time.Time{}
	}
	return now.Add(r.ttl)
}

// oldest must be called with the lock held
func (r *DatasetRegistry) oldest() *Dataset {
	var oldest *Dataset
	for _, ds := range r.datasets {
		if oldest == nil || ds.Info.UploadedAt.Before(oldest.Info.UploadedAt) {
			oldest = ds
		}
	}
	return oldest
}
