// File: internal/requeststore/store.go
package requeststore

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"blood_donation_dashboard/internal/common"
	"blood_donation_dashboard/internal/config"
	"blood_donation_dashboard/internal/domain"
	"blood_donation_dashboard/internal/lifecycle"
	"blood_donation_dashboard/internal/platform/metrics"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// API is the subset of the backend client used by the store.
type API interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Patch(ctx context.Context, path string, query url.Values, body, out any) error
	Delete(ctx context.Context, path string, out any) error
}

// Cache is the key-addressed list cache shared by every store of the process.
type Cache struct {
	items *gocache.Cache
	ttl   time.Duration
}

// NewCache creates the list cache with the configured TTL.
func NewCache(cfg *config.Config) *Cache {
	ttl := cfg.ListCacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{items: gocache.New(ttl, 2*ttl), ttl: ttl}
}

// Options describes one collection.
type Options struct {
	Collection string // cache namespace and metrics label, e.g. "blood_requests"
	Path       string // backend collection path, e.g. "/donorRequest"
	RecordType lifecycle.RecordType
}

// Store is the fetch, filter, paginate and mutate controller for one record family.
type Store[T domain.Record] struct {
	opts    Options
	api     API
	engine  *lifecycle.Engine
	cache   *Cache
	group   singleflight.Group
	locks   keyedMutex
	metrics *metrics.Metrics
	logger  *zap.Logger

	// generation is bumped by every invalidation; a load that started under an older
	// generation never writes to the cache.
	genMu      sync.Mutex
	generation uint64
}

// New creates a store for one collection.
func New[T domain.Record](opts Options, api API, engine *lifecycle.Engine, cache *Cache, m *metrics.Metrics, logger *zap.Logger) *Store[T] {
	return &Store[T]{
		opts:    opts,
		api:     api,
		engine:  engine,
		cache:   cache,
		locks:   keyedMutex{locks: make(map[string]*refLock)},
		metrics: m,
		logger:  logger.Named("RequestListStore").With(zap.String("collection", opts.Collection)),
	}
}

// Collection returns the collection key.
func (s *Store[T]) Collection() string { return s.opts.Collection }

func (s *Store[T]) key(query url.Values) string {
	return s.opts.Collection + "|" + query.Encode()
}

// Load returns the collection for query, from cache when possible. Concurrent loads of the
// same key share one fetch. The returned slice is the caller's to modify.
func (s *Store[T]) Load(ctx context.Context, query url.Values) ([]T, error) {
	key := s.key(query)
	if v, ok := s.cache.items.Get(key); ok {
		s.metrics.CacheHit(s.opts.Collection)
		return slices.Clone(v.([]T)), nil
	}
	s.metrics.CacheMiss(s.opts.Collection)

	s.genMu.Lock()
	gen := s.generation
	s.genMu.Unlock()

	// The generation is part of the flight key so a load started after an invalidation
	// never joins a fetch that began before it.
	ch := s.group.DoChan(key+"#"+strconv.FormatUint(gen, 10), func() (any, error) {
		var out []T
		if err := s.api.Get(context.WithoutCancel(ctx), s.opts.Path, query, &out); err != nil {
			return nil, err
		}
		if out == nil {
			out = []T{}
		}
		s.genMu.Lock()
		if s.generation == gen {
			s.cache.items.Set(key, out, s.cache.ttl)
		}
		s.genMu.Unlock()
		return out, nil
	})

	select {
	case <-ctx.Done():
		// The caller went away; the fetch still completes for anyone else waiting on it.
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			s.logger.Warn("List fetch failed", zap.String("query", query.Encode()), zap.Error(res.Err))
			return nil, res.Err
		}
		return slices.Clone(res.Val.([]T)), nil
	}
}

// Records is a lazy, restartable view of the collection. Each range re-runs Load, so a
// range after an invalidation observes fresh data. A failed load yields one error.
func (s *Store[T]) Records(ctx context.Context, query url.Values) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		records, err := s.Load(ctx, query)
		if err != nil {
			var zero T
			yield(zero, err)
			return
		}
		for _, r := range records {
			if !yield(r, nil) {
				return
			}
		}
	}
}

// Invalidate drops every cached query of the collection.
func (s *Store[T]) Invalidate() {
	prefix := s.opts.Collection + "|"

	s.genMu.Lock()
	s.generation++
	for k := range s.cache.items.Items() {
		if strings.HasPrefix(k, prefix) {
			s.cache.items.Delete(k)
		}
	}
	s.genMu.Unlock()

	s.metrics.CacheInvalidate(s.opts.Collection)
	s.logger.Debug("Collection invalidated")
}

// Get fetches one record.
func (s *Store[T]) Get(ctx context.Context, id string) (*T, error) {
	var out T
	if err := s.api.Get(ctx, s.recordPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create posts a new record and returns the backend id. The collection is invalidated.
func (s *Store[T]) Create(ctx context.Context, body any) (string, error) {
	var resp struct {
		InsertedID string `json:"insertedId"`
	}
	if err := s.api.Post(ctx, s.opts.Path, body, &resp); err != nil {
		return "", err
	}
	s.Invalidate()
	s.logger.Info("Record created", zap.String("id", resp.InsertedID))
	return resp.InsertedID, nil
}

// Mutate validates patch against the lifecycle policy, sends it and invalidates the
// collection. Policy failures are *common.TransitionError and never reach the network.
// Mutations on the same id run one at a time. The returned record is the refetched
// server copy, or nil when the refetch failed after a successful write.
func (s *Store[T]) Mutate(ctx context.Context, actor domain.Role, id string, patch lifecycle.Patch) (*T, error) {
	if err := s.precheck(actor, patch); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	current, err := s.currentStatus(ctx, id)
	if err != nil {
		return nil, &common.MutationError{Op: "patch", RecordID: id, Err: err}
	}
	if err := s.engine.ValidatePatch(actor, s.opts.RecordType, current, patch); err != nil {
		return nil, err
	}

	if err := s.api.Patch(ctx, s.recordPath(id), nil, patch, nil); err != nil {
		s.logger.Warn("Patch failed; cache left untouched", zap.String("id", id), zap.Error(err))
		return nil, &common.MutationError{Op: "patch", RecordID: id, Err: err}
	}
	s.Invalidate()

	updated, err := s.Get(ctx, id)
	if err != nil {
		s.logger.Warn("Refetch after patch failed", zap.String("id", id), zap.Error(err))
		return nil, nil
	}
	return updated, nil
}

// Confirmation is the explicit go-ahead for an irreversible delete.
type Confirmation struct {
	id        string
	confirmed bool
}

// Confirm records that the user confirmed deleting id.
func Confirm(id string) Confirmation {
	return Confirmation{id: id, confirmed: id != ""}
}

// ID returns the record the confirmation is for.
func (c Confirmation) ID() string { return c.id }

// Delete removes a confirmed record and invalidates the collection.
func (s *Store[T]) Delete(ctx context.Context, actor domain.Role, c Confirmation) error {
	if !c.confirmed {
		return common.ErrConfirmationRequired
	}
	if !s.engine.CanDelete(actor, s.opts.RecordType) {
		return common.ErrForbidden.WithDetails("Only an admin may delete records.")
	}

	unlock := s.locks.Lock(c.id)
	defer unlock()

	if err := s.api.Delete(ctx, s.recordPath(c.id), nil); err != nil {
		s.logger.Warn("Delete failed; cache left untouched", zap.String("id", c.id), zap.Error(err))
		return &common.MutationError{Op: "delete", RecordID: c.id, Err: err}
	}
	s.Invalidate()
	s.logger.Info("Record deleted", zap.String("id", c.id), zap.String("actor", string(actor)))
	return nil
}

// precheck rejects patches the actor's role can never send, before any I/O.
func (s *Store[T]) precheck(actor domain.Role, patch lifecycle.Patch) error {
	if patch == nil {
		return &common.TransitionError{RecordType: string(s.opts.RecordType), Role: string(actor), Reason: "empty patch"}
	}
	to, changes := patch.TargetStatus()
	if !changes && !patch.EditsFields() {
		return &common.TransitionError{RecordType: string(s.opts.RecordType), Role: string(actor), Reason: "empty patch"}
	}
	if patch.EditsFields() && !s.engine.CanEditFields(actor, s.opts.RecordType) {
		return &common.TransitionError{RecordType: string(s.opts.RecordType), Role: string(actor), Reason: "role may not edit record fields"}
	}
	if changes && !s.engine.CanTransition(actor, s.opts.RecordType) {
		return &common.TransitionError{RecordType: string(s.opts.RecordType), Role: string(actor), To: string(to), Reason: "role may not change status"}
	}
	return nil
}

// currentStatus reads the record's status from the backend. Cached lists may trail
// writes made by other staff, so they are never consulted here.
func (s *Store[T]) currentStatus(ctx context.Context, id string) (domain.Status, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		var apiErr *common.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == 404 {
			return "", common.ErrNotFound.WithDetails(fmt.Sprintf("%s %s does not exist", s.opts.RecordType, id))
		}
		return "", err
	}
	return (*rec).GetStatus(), nil
}

func (s *Store[T]) recordPath(id string) string {
	return s.opts.Path + "/" + url.PathEscape(id)
}

type refLock struct {
	sync.Mutex
	refs int
}

// keyedMutex serialises work per record id and forgets ids nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

func (k *keyedMutex) Lock(id string) (unlock func()) {
	k.mu.Lock()
	l, ok := k.locks[id]
	if !ok {
		l = &refLock{}
		k.locks[id] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, id)
		}
		k.mu.Unlock()
	}
}
