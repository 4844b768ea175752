package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/drstein77/istore/internal/catalog"
	"github.com/drstein77/istore/internal/models"
	"github.com/drstein77/istore/internal/storefront"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNotFound indicates an unknown or expired session.
var ErrNotFound = errors.New("not found")

// CleanupInterval is how often idle sessions are looked for.
const CleanupInterval = time.Minute

type Log interface {
	Info(string, ...zap.Field)
	Debug(string, ...zap.Field)
	Error(string, ...zap.Field)
}

// Keeper interface for database operations
type Keeper interface {
	SyncCatalog(context.Context, []models.Product) error
	Ping(context.Context) bool
	Close() bool
}

type entry struct {
	session  *storefront.Session
	lastSeen time.Time
}

// MemoryStorage keeps shopper sessions in memory. Sessions idle for longer
// than ttl are dropped together with their carts.
type MemoryStorage struct {
	ctx context.Context
	mx  sync.RWMutex

	sessions map[string]*entry
	ttl      time.Duration
	now      func() time.Time

	keeper Keeper
	log    Log

	stopCleanup chan struct{}
	wg          sync.WaitGroup
	closeOnce   sync.Once
}

// NewMemoryStorage creates a new MemoryStorage instance and starts the idle
// session cleanup. When a keeper is given the catalog is published to it.
func NewMemoryStorage(ctx context.Context, ttl time.Duration, keeper Keeper, log Log) *MemoryStorage {
	if keeper != nil {
		if err := keeper.SyncCatalog(ctx, catalog.Products()); err != nil {
			log.Error("cannot publish catalog", zap.Error(err))
		}
	}

	s := &MemoryStorage{
		ctx:         ctx,
		sessions:    make(map[string]*entry),
		ttl:         ttl,
		now:         time.Now,
		keeper:      keeper,
		log:         log,
		stopCleanup: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.cleanupLoop()

	return s
}

// CreateSession registers a fresh session and returns its id.
func (s *MemoryStorage) CreateSession() (string, *storefront.Session) {
	id := uuid.New().String()
	sess := storefront.NewSession()

	s.mx.Lock()
	s.sessions[id] = &entry{session: sess, lastSeen: s.now()}
	s.mx.Unlock()

	s.log.Debug("session created", zap.String("session", id))
	return id, sess
}

// Session returns a live session and refreshes its idle timer.
func (s *MemoryStorage) Session(id string) (*storefront.Session, error) {
	s.mx.Lock()
	defer s.mx.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	now := s.now()
	if s.expired(e, now) {
		delete(s.sessions, id)
		return nil, ErrNotFound
	}
	e.lastSeen = now
	return e.session, nil
}

func (s *MemoryStorage) DeleteSession(id string) {
	s.mx.Lock()
	delete(s.sessions, id)
	s.mx.Unlock()
}

func (s *MemoryStorage) Len() int {
	s.mx.RLock()
	defer s.mx.RUnlock()
	return len(s.sessions)
}

// Ping reports database health. Without a database there is nothing to fail.
func (s *MemoryStorage) Ping(ctx context.Context) bool {
	if s.keeper == nil {
		return true
	}
	return s.keeper.Ping(ctx)
}

// Close stops the cleanup loop and releases the keeper.
func (s *MemoryStorage) Close() {
	s.closeOnce.Do(func() {
		close(s.stopCleanup)
		s.wg.Wait()
		if s.keeper != nil {
			s.keeper.Close()
		}
	})
}

func (s *MemoryStorage) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.evictExpired()
		case <-s.stopCleanup:
			return
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *MemoryStorage) evictExpired() int {
	s.mx.Lock()
	defer s.mx.Unlock()

	now := s.now()
	evicted := 0
	for id, e := range s.sessions {
		if s.expired(e, now) {
			delete(s.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		s.log.Info("expired sessions evicted", zap.Int("count", evicted))
	}
	return evicted
}

func (s *MemoryStorage) expired(e *entry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.lastSeen) > s.ttl
}
