// Package folders implements the session-folder store: a forest of folder
// records, a session-to-folder assignment map, and the per-folder expansion
// state, persisted through the host storage capability. All reads hand out
// copies; the in-memory model is the source of truth for the running
// instance and persisted state may lag on I/O failure.
package folders

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sessiondeck/folderdeck/internal/capability"
	apperrors "github.com/sessiondeck/folderdeck/pkg/errors"
	"github.com/sessiondeck/folderdeck/pkg/metrics"
)

// Store owns the folder forest and session assignments.
type Store struct {
	storage      capability.Storage
	log          *zap.Logger
	defaultColor string
	syncWrites   bool

	mu          sync.RWMutex
	folders     []*Folder
	assignments map[string]string
	expanded    map[string]struct{}

	obsMu     sync.Mutex
	observers []observer
	nextObsID uint64

	writeSeq    uint64
	writeMu     sync.Mutex
	lastWritten map[string]uint64
	writes      sync.WaitGroup
}

type observer struct {
	id uint64
	fn func(Change)
}

// Option customises store construction.
type Option func(*Store)

// WithLogger overrides the store logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// WithDefaultColor overrides the color assigned to folders created without one.
func WithDefaultColor(color string) Option {
	return func(s *Store) {
		if strings.TrimSpace(color) != "" {
			s.defaultColor = strings.TrimSpace(color)
		}
	}
}

// WithSyncWrites makes persistence writes block the mutating call instead of
// running in the background. Tests rely on this for deterministic storage
// assertions.
func WithSyncWrites() Option {
	return func(s *Store) {
		s.syncWrites = true
	}
}

// NewStore constructs a store over the supplied storage capability. Call
// Load before serving reads.
func NewStore(storage capability.Storage, opts ...Option) (*Store, error) {
	if storage == nil {
		return nil, errors.New("folders: storage capability is required")
	}

	s := &Store{
		storage:      storage,
		log:          zap.NewNop(),
		defaultColor: DefaultColor,
		assignments:  make(map[string]string),
		expanded:     make(map[string]struct{}),
		lastWritten:  make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close waits for in-flight persistence writes and drops all subscribers.
func (s *Store) Close() {
	s.writes.Wait()

	s.obsMu.Lock()
	s.observers = nil
	s.obsMu.Unlock()
}

// Subscribe registers a change observer. Observers are invoked synchronously
// after every successful mutation, in subscription order. The returned
// function cancels the subscription.
func (s *Store) Subscribe(fn func(Change)) func() {
	if fn == nil {
		return func() {}
	}

	s.obsMu.Lock()
	s.nextObsID++
	id := s.nextObsID
	s.observers = append(s.observers, observer{id: id, fn: fn})
	s.obsMu.Unlock()

	return func() {
		s.obsMu.Lock()
		defer s.obsMu.Unlock()
		for i, obs := range s.observers {
			if obs.id == id {
				s.observers = append(s.observers[:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) notify(change Change) {
	s.obsMu.Lock()
	subscribers := make([]func(Change), len(s.observers))
	for i, obs := range s.observers {
		subscribers[i] = obs.fn
	}
	s.obsMu.Unlock()

	for _, fn := range subscribers {
		fn(change)
	}
}

// CreateFolder adds a folder under parentID (nil for root level). The new
// folder starts expanded and its order is the current sibling count.
func (s *Store) CreateFolder(ctx context.Context, name, color string, parentID *string) (*Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		metrics.FolderOps.WithLabelValues("create", "rejected").Inc()
		return nil, apperrors.NewBadRequest("folder name is required")
	}

	color = strings.TrimSpace(color)
	if color == "" {
		color = s.defaultColor
	}

	s.mu.Lock()
	if parentID != nil && s.findLocked(*parentID) == nil {
		s.mu.Unlock()
		s.log.Warn("create folder: parent does not exist", zap.String("parent_id", *parentID))
		metrics.FolderOps.WithLabelValues("create", "not_found").Inc()
		return nil, apperrors.NewNotFound("parent folder not found")
	}

	folder := &Folder{
		ID:    uuid.NewString(),
		Name:  name,
		Color: color,
		Order: s.siblingCountLocked(parentID),
	}
	if parentID != nil {
		parent := *parentID
		folder.ParentID = &parent
	}

	s.folders = append(s.folders, folder)
	s.expanded[folder.ID] = struct{}{}
	result := folder.Clone()
	docs := s.snapshotLocked(docFolders, docExpansion)
	s.mu.Unlock()

	s.persist(ctx, docs)
	s.notify(Change{Kind: ChangeFolderCreated, FolderID: result.ID})
	metrics.FolderOps.WithLabelValues("create", "ok").Inc()
	return result, nil
}

// UpdateFolder applies a partial update and returns the updated folder, or
// nil when the id is unknown or the re-parent would introduce a cycle. A
// rejected update leaves the model untouched and is logged; it is never
// surfaced as an error.
func (s *Store) UpdateFolder(ctx context.Context, id string, update FolderUpdate) *Folder {
	s.mu.Lock()
	folder := s.findLocked(id)
	if folder == nil {
		s.mu.Unlock()
		s.log.Warn("update folder: unknown id", zap.String("folder_id", id))
		metrics.FolderOps.WithLabelValues("update", "not_found").Inc()
		return nil
	}

	if update.Parent != nil && update.Parent.ID != nil {
		newParent := *update.Parent.ID
		if newParent == id || containsID(s.descendantIDsLocked(id), newParent) {
			s.mu.Unlock()
			s.log.Warn("update folder: re-parent would create a cycle",
				zap.String("folder_id", id),
				zap.String("new_parent_id", newParent),
			)
			metrics.FolderOps.WithLabelValues("update", "rejected").Inc()
			return nil
		}
	}

	if update.Name != nil {
		if name := strings.TrimSpace(*update.Name); name != "" {
			folder.Name = name
		}
	}
	if update.Color != nil {
		if color := strings.TrimSpace(*update.Color); color != "" {
			folder.Color = color
		}
	}
	if update.Parent != nil {
		if update.Parent.ID == nil {
			folder.ParentID = nil
		} else {
			parent := *update.Parent.ID
			folder.ParentID = &parent
		}
	}
	if update.Order != nil {
		folder.Order = *update.Order
	}

	result := folder.Clone()
	docs := s.snapshotLocked(docFolders)
	s.mu.Unlock()

	s.persist(ctx, docs)
	s.notify(Change{Kind: ChangeFolderUpdated, FolderID: id})
	metrics.FolderOps.WithLabelValues("update", "ok").Inc()
	return result
}

// DeleteFolder removes the folder, its entire descendant subtree, and every
// session assignment pointing into the removed set. Reports whether a folder
// was deleted. Stale expansion entries are left behind; the projector
// ignores them and maintenance prunes them.
func (s *Store) DeleteFolder(ctx context.Context, id string) bool {
	s.mu.Lock()
	if s.findLocked(id) == nil {
		s.mu.Unlock()
		metrics.FolderOps.WithLabelValues("delete", "not_found").Inc()
		return false
	}

	doomed := map[string]struct{}{id: {}}
	for _, descendant := range s.descendantIDsLocked(id) {
		doomed[descendant] = struct{}{}
	}

	kept := s.folders[:0]
	for _, folder := range s.folders {
		if _, gone := doomed[folder.ID]; !gone {
			kept = append(kept, folder)
		}
	}
	s.folders = kept

	for sessionID, folderID := range s.assignments {
		if _, gone := doomed[folderID]; gone {
			delete(s.assignments, sessionID)
		}
	}

	docs := s.snapshotLocked(docFolders, docAssignments)
	s.mu.Unlock()

	s.persist(ctx, docs)
	s.notify(Change{Kind: ChangeFolderDeleted, FolderID: id})
	metrics.FolderOps.WithLabelValues("delete", "ok").Inc()
	return true
}

// MoveSessionToFolder sets or clears a session's folder assignment. The
// folder id is not validated against the forest; the projector treats
// assignments to unknown folders as unassigned.
func (s *Store) MoveSessionToFolder(ctx context.Context, sessionID string, folderID *string) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return
	}

	s.mu.Lock()
	if folderID == nil {
		delete(s.assignments, sessionID)
	} else {
		s.assignments[sessionID] = *folderID
	}
	docs := s.snapshotLocked(docAssignments)
	s.mu.Unlock()

	s.persist(ctx, docs)
	s.notify(Change{Kind: ChangeAssignmentUpdated, SessionID: sessionID})
	metrics.FolderOps.WithLabelValues("move_session", "ok").Inc()
}

// DescendantFolderIDs returns every folder reachable below id, pre-order.
// The result never includes id itself; an unknown id yields an empty slice.
func (s *Store) DescendantFolderIDs(id string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.descendantIDsLocked(id)
}

// SetExpanded marks a folder expanded or collapsed in the tree view.
func (s *Store) SetExpanded(ctx context.Context, id string, expanded bool) {
	s.mu.Lock()
	if expanded {
		s.expanded[id] = struct{}{}
	} else {
		delete(s.expanded, id)
	}
	docs := s.snapshotLocked(docExpansion)
	s.mu.Unlock()

	s.persist(ctx, docs)
	s.notify(Change{Kind: ChangeExpansionUpdated, FolderID: id})
}

// ToggleExpanded flips a folder's expansion state and returns the new state.
func (s *Store) ToggleExpanded(ctx context.Context, id string) bool {
	s.mu.Lock()
	_, isExpanded := s.expanded[id]
	if isExpanded {
		delete(s.expanded, id)
	} else {
		s.expanded[id] = struct{}{}
	}
	docs := s.snapshotLocked(docExpansion)
	s.mu.Unlock()

	s.persist(ctx, docs)
	s.notify(Change{Kind: ChangeExpansionUpdated, FolderID: id})
	return !isExpanded
}

// PruneExpansion drops expansion entries whose folder no longer exists and
// returns how many were removed.
func (s *Store) PruneExpansion(ctx context.Context) int {
	s.mu.Lock()
	var pruned int
	for id := range s.expanded {
		if s.findLocked(id) == nil {
			delete(s.expanded, id)
			pruned++
		}
	}
	if pruned == 0 {
		s.mu.Unlock()
		return 0
	}
	docs := s.snapshotLocked(docExpansion)
	s.mu.Unlock()

	s.persist(ctx, docs)
	s.notify(Change{Kind: ChangeExpansionUpdated})
	return pruned
}

// Folders returns a copy of every folder in encounter order.
func (s *Store) Folders() []Folder {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Folder, 0, len(s.folders))
	for _, folder := range s.folders {
		out = append(out, *folder.Clone())
	}
	return out
}

// Folder returns a copy of the folder with the given id, or nil.
func (s *Store) Folder(id string) *Folder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findLocked(id).Clone()
}

// SessionFolder returns the folder id a session is assigned to, or nil when
// the session is unassigned.
func (s *Store) SessionFolder(sessionID string) *string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	folderID, ok := s.assignments[sessionID]
	if !ok {
		return nil
	}
	return &folderID
}

// IsExpanded reports whether the folder is currently shown expanded.
func (s *Store) IsExpanded(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.expanded[id]
	return ok
}

// Snapshot returns one consistent view of the model for projection.
func (s *Store) Snapshot() ([]Folder, map[string]string, map[string]bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	folderList := make([]Folder, 0, len(s.folders))
	for _, folder := range s.folders {
		folderList = append(folderList, *folder.Clone())
	}

	assignments := make(map[string]string, len(s.assignments))
	for sessionID, folderID := range s.assignments {
		assignments[sessionID] = folderID
	}

	expanded := make(map[string]bool, len(s.expanded))
	for id := range s.expanded {
		expanded[id] = true
	}

	return folderList, assignments, expanded
}

func (s *Store) findLocked(id string) *Folder {
	for _, folder := range s.folders {
		if folder.ID == id {
			return folder
		}
	}
	return nil
}

func (s *Store) siblingCountLocked(parentID *string) int {
	var count int
	for _, folder := range s.folders {
		if sameParent(folder.ParentID, parentID) {
			count++
		}
	}
	return count
}

// descendantIDsLocked walks the subtree below id pre-order with an explicit
// stack, so arbitrarily deep nesting cannot exhaust the goroutine stack. A
// seen set keeps the walk finite even if a corrupt document smuggled in a
// cycle.
func (s *Store) descendantIDsLocked(id string) []string {
	var out []string
	seen := map[string]struct{}{id: {}}
	stack := []string{id}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if current != id {
			out = append(out, current)
		}

		children := make([]string, 0, 4)
		for _, folder := range s.folders {
			if folder.ParentID != nil && *folder.ParentID == current {
				if _, dup := seen[folder.ID]; dup {
					continue
				}
				seen[folder.ID] = struct{}{}
				children = append(children, folder.ID)
			}
		}
		// Push in reverse so the first child is visited next.
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}

	return out
}

func sameParent(a, b *string) bool {
	switch {
	case a == nil && b == nil:
		return true
	case a == nil || b == nil:
		return false
	default:
		return *a == *b
	}
}

func containsID(ids []string, target string) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}
