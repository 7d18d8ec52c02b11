// Package chatstore keeps one user's chat collection in memory for a live
// sidebar and persists the changes requested on it.
package chatstore

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"chat-sidebar/internal/events"
	"chat-sidebar/internal/models"
	"chat-sidebar/internal/observability"
	"chat-sidebar/internal/repositories"
)

const (
	defaultTimeout = 10 * time.Second
	writeQueueSize = 64
	loadKey        = "chats"
	// a load that keeps racing writes is accepted after this many queries
	maxLoadAttempts = 3
)

var ErrClosed = errors.New("chat store closed")

type opKind int

const (
	opUpdate opKind = iota
	opDelete
)

type writeOp struct {
	kind   opKind
	chatID string
	patch  models.ChatPatch
	done   func(error)
}

// Store is the chat collection of one user. Reads are safe from any
// goroutine. Writes are applied locally right away and persisted in order
// by a single writer goroutine.
type Store struct {
	repo     repositories.ChatRepository
	notifier events.Notifier
	userID   int
	timeout  time.Duration

	mu           sync.RWMutex
	chats        []models.ChatRecord
	loading      bool
	closed       bool
	lastErr      error
	writeGen     uint64
	listeners    map[int]func()
	nextListener int

	loads  singleflight.Group
	writes chan writeOp
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Store.
type Option func(*Store)

// WithNotifier sets who is told about persisted changes.
func WithNotifier(notifier events.Notifier) Option {
	return func(s *Store) {
		s.notifier = notifier
	}
}

// WithTimeout bounds every repository call.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Store) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// New creates a Store for userID and starts its writer.
func New(repo repositories.ChatRepository, userID int, opts ...Option) *Store {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		repo:      repo,
		userID:    userID,
		timeout:   defaultTimeout,
		chats:     []models.ChatRecord{},
		listeners: make(map[int]func()),
		writes:    make(chan writeOp, writeQueueSize),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.wg.Add(1)
	go s.runWriter()
	return s
}

// Chats returns a copy of the collection.
func (s *Store) Chats() []models.ChatRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ChatRecord, len(s.chats))
	copy(out, s.chats)
	return out
}

// IsLoading reports whether a load is in flight.
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the last load or write failure.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// OnChange registers fn to run after every change of the collection or of
// the loading flag. fn runs on the goroutine that made the change.
func (s *Store) OnChange(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// LoadChats starts replacing the collection with the persisted chats. It is
// a no-op while a load is in flight or after Close.
func (s *Store) LoadChats() {
	s.mu.Lock()
	if s.loading || s.closed {
		s.mu.Unlock()
		return
	}
	s.loading = true
	s.wg.Add(1)
	s.mu.Unlock()
	s.notify()

	go func() {
		defer s.wg.Done()
		s.reload()
	}()
}

// reload fetches the collection. Concurrent calls share one query. A result
// read before a write was persisted is discarded and queried again.
func (s *Store) reload() {
	_, _, _ = s.loads.Do(loadKey, func() (interface{}, error) {
		var (
			chats []models.ChatRecord
			err   error
		)
		for attempt := 1; ; attempt++ {
			s.mu.RLock()
			gen := s.writeGen
			s.mu.RUnlock()

			chats, err = s.list()
			observability.IncChatLoad(observability.Result(err))

			s.mu.Lock()
			if err != nil || s.writeGen == gen || attempt == maxLoadAttempts {
				break
			}
			s.mu.Unlock()
		}

		s.loading = false
		if err != nil {
			s.lastErr = err
			log.Printf("chat load failed user_id=%d: %v", s.userID, err)
		} else {
			if chats == nil {
				chats = []models.ChatRecord{}
			}
			s.chats = chats
		}
		s.mu.Unlock()
		s.notify()
		return nil, err
	})
}

func (s *Store) list() ([]models.ChatRecord, error) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()
	return s.repo.ListChats(ctx, s.userID)
}

// UpdateChat applies patch locally and queues it for persistence. A failed
// write is logged and the collection is reloaded to drop the local change.
func (s *Store) UpdateChat(id string, patch models.ChatPatch) {
	if patch.IsEmpty() {
		return
	}
	s.mu.Lock()
	if i := s.indexOf(id); i >= 0 {
		s.chats[i] = patch.ApplyTo(s.chats[i])
	}
	s.mu.Unlock()
	s.notify()

	s.enqueue(writeOp{kind: opUpdate, chatID: id, patch: patch})
}

// DeleteChat queues the chat for deletion. It leaves the collection once the
// repository confirms. done, if set, receives the outcome.
func (s *Store) DeleteChat(id string, done func(error)) {
	s.enqueue(writeOp{kind: opDelete, chatID: id, done: done})
}

// Apply merges a change persisted elsewhere without writing it again.
func (s *Store) Apply(event models.ChatEvent) {
	s.mu.Lock()
	switch event.Type {
	case models.ChatEventCreated, models.ChatEventUpdated:
		if event.Chat == nil {
			s.mu.Unlock()
			return
		}
		s.upsert(*event.Chat)
	case models.ChatEventDeleted:
		s.remove(event.ChatID)
	default:
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.notify()
}

// Close stops the writer and waits for in-flight work. Queued writes that
// have not started are dropped.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

func (s *Store) enqueue(op writeOp) {
	if s.ctx.Err() != nil {
		if op.done != nil {
			op.done(ErrClosed)
		}
		return
	}
	select {
	case s.writes <- op:
	case <-s.ctx.Done():
		if op.done != nil {
			op.done(ErrClosed)
		}
	}
}

func (s *Store) runWriter() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case op := <-s.writes:
			s.persist(op)
		}
	}
}

func (s *Store) persist(op writeOp) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	switch op.kind {
	case opUpdate:
		chat, err := s.repo.UpdateChat(ctx, s.userID, op.chatID, op.patch)
		observability.IncChatWrite("update", observability.Result(err))
		if err != nil {
			s.fail("update", op.chatID, err)
			s.reload()
			return
		}
		s.mu.Lock()
		s.upsert(chat)
		s.writeGen++
		s.mu.Unlock()
		s.notify()
		s.emit(ctx, models.ChatEvent{Type: models.ChatEventUpdated, Chat: &chat, ChatID: chat.ID})

	case opDelete:
		err := s.repo.HideChat(ctx, s.userID, op.chatID)
		observability.IncChatWrite("delete", observability.Result(err))
		if err != nil {
			s.fail("delete", op.chatID, err)
		} else {
			s.mu.Lock()
			s.remove(op.chatID)
			s.writeGen++
			s.mu.Unlock()
			s.notify()
			s.emit(ctx, models.ChatEvent{Type: models.ChatEventDeleted, ChatID: op.chatID})
		}
		if op.done != nil {
			op.done(err)
		}
	}
}

func (s *Store) fail(op, chatID string, err error) {
	log.Printf("chat %s failed user_id=%d chat_id=%s: %v", op, s.userID, chatID, err)
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

func (s *Store) emit(ctx context.Context, event models.ChatEvent) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, s.userID, event)
	}
}

func (s *Store) notify() {
	s.mu.RLock()
	listeners := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn()
	}
}

// caller holds s.mu
func (s *Store) indexOf(id string) int {
	for i := range s.chats {
		if s.chats[i].ID == id {
			return i
		}
	}
	return -1
}

// caller holds s.mu
func (s *Store) upsert(chat models.ChatRecord) {
	if i := s.indexOf(chat.ID); i >= 0 {
		s.chats[i] = chat
		return
	}
	s.chats = append(s.chats, chat)
}

// caller holds s.mu
func (s *Store) remove(id string) {
	if i := s.indexOf(id); i >= 0 {
		s.chats = append(s.chats[:i], s.chats[i+1:]...)
	}
}
