// Package selection keeps the bacteria chosen for a batch consistent between
// a local cache and the remote store.
//
// An Engine is either Idle, accepting local edits, or Syncing, while a remote
// value is being applied. Sync enters Syncing immediately and only returns to
// Idle after a settle delay, so an edit racing the remote load is dropped
// instead of overwriting it. Syncs arriving during the delay replace the
// pending value; the cache is written once, with the last one.
package selection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrClosed       = errors.New("selection session closed")
	ErrNoRemote     = errors.New("selection session has no remote")
	// ErrRemoteUnseen is returned by Push when the session started from an
	// empty cache and never pulled the remote selection.
	ErrRemoteUnseen = errors.New("remote selection not pulled yet")
)

// State of an Engine.
type State int

const (
	Idle State = iota
	Syncing
)

func (s State) String() string {
	if s == Syncing {
		return "syncing"
	}
	return "idle"
}

// Remote is the durable copy of a batch selection.
type Remote interface {
	Selection(ctx context.Context, batchID string) ([]string, error)
	SaveSelection(ctx context.Context, batchID string, ids []string) error
}

const (
	DefaultSettleDelay  = 200 * time.Millisecond
	DefaultPersistDelay = 300 * time.Millisecond
)

type Options struct {
	// SettleDelay is how long Syncing lasts after the last Sync.
	SettleDelay time.Duration
	// PersistDelay coalesces cache writes after local edits.
	PersistDelay time.Duration
	Logger       *zap.Logger
}

// Engine is one editing session over one batch selection.
type Engine struct {
	mu      sync.Mutex
	batchID string
	key     string
	cache   Cache
	remote  Remote
	log     *zap.Logger

	state       State
	local       []string
	lastWritten string
	remoteSeen  string
	fromCache   bool
	closed      bool

	settle  *Debouncer
	persist *Debouncer
}

// Open starts a session for batchID, seeding the local selection from cache.
// remote may be nil for a cache-only session.
func Open(batchID string, cache Cache, remote Remote, opts Options) *Engine {
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = DefaultSettleDelay
	}
	if opts.PersistDelay <= 0 {
		opts.PersistDelay = DefaultPersistDelay
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		batchID: batchID,
		key:     CacheKey(batchID),
		cache:   cache,
		remote:  remote,
		log:     log.With(zap.String("batch", batchID)),
		settle:  NewDebouncer(opts.SettleDelay),
		persist: NewDebouncer(opts.PersistDelay),

		lastWritten: canonical(nil),
	}
	if ids, ok := readCached(cache, e.key, e.log); ok {
		e.local = ids
		e.lastWritten = canonical(ids)
		e.fromCache = true
		e.log.Debug("selection loaded from cache", zap.Strings("ids", ids))
	}
	return e
}

// BatchID is the batch this session edits.
func (e *Engine) BatchID() string { return e.batchID }

// Current returns a copy of the local selection.
func (e *Engine) Current() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return clone(e.local)
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Dirty reports whether the local selection differs from the cached one.
func (e *Engine) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return canonical(e.local) != e.lastWritten
}

func (e *Engine) editableLocked() bool {
	return !e.closed && e.state == Idle
}

// Toggle adds id when absent and removes it when present. It reports whether
// the selection changed; edits are ignored while Syncing.
func (e *Engine) Toggle(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.editableLocked() || strings.TrimSpace(id) == "" {
		return false
	}
	if i := indexOf(e.local, id); i >= 0 {
		e.local = append(e.local[:i:i], e.local[i+1:]...)
	} else {
		e.local = append(clone(e.local), id)
	}
	e.markDirtyLocked("toggle", id)
	return true
}

// Add selects id. It is a no-op when id is already selected or while Syncing.
func (e *Engine) Add(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.editableLocked() || strings.TrimSpace(id) == "" || indexOf(e.local, id) >= 0 {
		return false
	}
	e.local = append(clone(e.local), id)
	e.markDirtyLocked("add", id)
	return true
}

// Remove deselects id. It is a no-op when id is not selected or while Syncing.
func (e *Engine) Remove(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := indexOf(e.local, id)
	if !e.editableLocked() || i < 0 {
		return false
	}
	e.local = append(e.local[:i:i], e.local[i+1:]...)
	e.markDirtyLocked("remove", id)
	return true
}

// Set replaces the whole local selection. Ignored while Syncing.
func (e *Engine) Set(ids []string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids = normalize(ids)
	if !e.editableLocked() || equalOrdered(e.local, ids) {
		return false
	}
	e.local = ids
	e.markDirtyLocked("set", strings.Join(ids, ","))
	return true
}

func (e *Engine) markDirtyLocked(op, id string) {
	e.log.Debug("selection edited", zap.String("op", op), zap.String("id", id), zap.Strings("selection", e.local))
	e.persist.Trigger(e.persistLocal)
}

func (e *Engine) persistLocal() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.writeLocked()
}

// writeLocked stores the local selection unless the cache already holds it.
func (e *Engine) writeLocked() {
	want := canonical(e.local)
	if want == e.lastWritten {
		return
	}
	b, err := json.Marshal(nonNil(e.local))
	if err != nil {
		e.log.Warn("selection encode failed", zap.Error(err))
		return
	}
	if err := e.cache.Write(e.key, b); err != nil {
		e.log.Warn("selection cache write failed", zap.Error(err))
		return
	}
	e.lastWritten = want
	e.log.Debug("selection cached", zap.Strings("ids", e.local))
}

// Sync applies the remote selection. Equal sets, in any order, are a no-op.
// It reports whether the local selection was replaced.
func (e *Engine) Sync(remote []string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	remote = normalize(remote)
	e.remoteSeen = canonical(remote)
	if sameSet(e.local, remote) {
		return false
	}
	e.state = Syncing
	e.local = remote
	// the remote value supersedes any pending local write
	e.persist.Cancel()
	// edits stay blocked until the settle window passes
	e.settle.Trigger(e.finishSync)
	e.log.Debug("selection synced from remote", zap.Strings("ids", remote))
	return true
}

func (e *Engine) finishSync() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.writeLocked()
	e.state = Idle
}

// Pull loads the remote selection and applies it with Sync. On failure the
// local selection is left untouched and the error is returned.
func (e *Engine) Pull(ctx context.Context) (bool, error) {
	if err := e.checkRemote(); err != nil {
		return false, err
	}
	ids, err := e.remote.Selection(ctx, e.batchID)
	if err != nil {
		return false, fmt.Errorf("pull selection %s: %w", e.batchID, err)
	}
	return e.Sync(ids), nil
}

// Push writes the local selection to the remote. It skips the write when the
// remote is already known to hold the same set, and refuses with
// ErrRemoteUnseen when the session holds neither a cached nor a pulled
// selection.
func (e *Engine) Push(ctx context.Context) (bool, error) {
	if err := e.checkRemote(); err != nil {
		return false, err
	}
	e.mu.Lock()
	ids := clone(e.local)
	known := e.remoteSeen
	fromCache := e.fromCache
	e.mu.Unlock()

	if known == "" && !fromCache {
		return false, fmt.Errorf("push selection %s: %w", e.batchID, ErrRemoteUnseen)
	}
	if known != "" && canonical(ids) == known {
		return false, nil
	}
	if err := e.remote.SaveSelection(ctx, e.batchID, ids); err != nil {
		return false, fmt.Errorf("push selection %s: %w", e.batchID, err)
	}
	e.mu.Lock()
	e.remoteSeen = canonical(ids)
	e.mu.Unlock()
	return true, nil
}

func (e *Engine) checkRemote() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if e.remote == nil {
		return ErrNoRemote
	}
	return nil
}

// Reset clears the selection and its cache entry.
func (e *Engine) Reset() error {
	e.settle.Cancel()
	e.persist.Cancel()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.state = Idle
	e.local = nil
	e.lastWritten = canonical(nil)
	if err := e.cache.Erase(e.key); err != nil && !isNotExist(err) {
		return fmt.Errorf("erase cached selection: %w", err)
	}
	return nil
}

// Flush runs any pending settle or cache write immediately.
func (e *Engine) Flush() {
	e.settle.Flush()
	e.persist.Flush()
}

// Close ends the session. Pending writes are abandoned.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.settle.Stop()
	e.persist.Stop()
}

func normalize(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || indexOf(out, id) >= 0 {
			continue
		}
		out = append(out, id)
	}
	return out
}

func canonical(ids []string) string {
	s := append([]string{}, ids...)
	sort.Strings(s)
	b, _ := json.Marshal(s)
	return string(b)
}

func sameSet(a, b []string) bool {
	return canonical(a) == canonical(b)
}

func equalOrdered(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func clone(ids []string) []string {
	if ids == nil {
		return nil
	}
	return append([]string(nil), ids...)
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
