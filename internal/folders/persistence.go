package folders

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/sessiondeck/folderdeck/pkg/metrics"
)

// Storage document keys. Each document is serialized in full on every
// mutation; there is no incremental diffing or append log.
const (
	docFolders     = "session-folders"
	docAssignments = "session-folder-assignments"
	docExpansion   = "expanded-folders"
)

// document is one serialized snapshot queued for a storage write. seq is the
// monotonic issue number used to discard writes that complete out of order.
type document struct {
	key  string
	data []byte
	seq  uint64
}

// Load reads the persisted documents into memory. A missing key, a read
// failure, and a corrupt document are all treated as "start fresh" for that
// document: first run and corruption are indistinguishable on purpose.
// Failures are logged, never returned.
func (s *Store) Load(ctx context.Context) {
	var folderList []*Folder
	if data := s.readDocument(ctx, docFolders); data != nil {
		if err := json.Unmarshal(data, &folderList); err != nil {
			s.log.Warn("corrupt folder document, starting fresh", zap.Error(err))
			folderList = nil
		}
	}

	assignments := make(map[string]string)
	if data := s.readDocument(ctx, docAssignments); data != nil {
		if err := json.Unmarshal(data, &assignments); err != nil {
			s.log.Warn("corrupt assignment document, starting fresh", zap.Error(err))
			assignments = make(map[string]string)
		}
	}

	var expandedIDs []string
	if data := s.readDocument(ctx, docExpansion); data != nil {
		if err := json.Unmarshal(data, &expandedIDs); err != nil {
			s.log.Warn("corrupt expansion document, starting fresh", zap.Error(err))
			expandedIDs = nil
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.folders = s.folders[:0]
	for _, folder := range folderList {
		if folder == nil || folder.ID == "" {
			continue
		}
		s.folders = append(s.folders, folder)
	}

	s.assignments = assignments

	s.expanded = make(map[string]struct{}, len(expandedIDs))
	for _, id := range expandedIDs {
		s.expanded[id] = struct{}{}
	}
}

func (s *Store) readDocument(ctx context.Context, key string) []byte {
	data, err := s.storage.Read(ctx, key)
	if err != nil {
		s.log.Debug("storage read failed, defaulting to empty document",
			zap.String("document", key),
			zap.Error(err),
		)
		return nil
	}
	return data
}

// snapshotLocked serializes the requested documents from current state and
// stamps them with the next issue sequence. Callers must hold s.mu, which
// also serializes sequence assignment.
func (s *Store) snapshotLocked(keys ...string) []document {
	s.writeSeq++
	seq := s.writeSeq

	docs := make([]document, 0, len(keys))
	for _, key := range keys {
		var payload any
		switch key {
		case docFolders:
			payload = s.folders
		case docAssignments:
			payload = s.assignments
		case docExpansion:
			ids := make([]string, 0, len(s.expanded))
			for _, folder := range s.folders {
				if _, ok := s.expanded[folder.ID]; ok {
					ids = append(ids, folder.ID)
				}
			}
			// Stale entries without a folder record still round-trip.
			for id := range s.expanded {
				if s.findLocked(id) == nil {
					ids = append(ids, id)
				}
			}
			payload = ids
		default:
			continue
		}

		data, err := json.Marshal(payload)
		if err != nil {
			s.log.Error("serialize document", zap.String("document", key), zap.Error(err))
			continue
		}
		docs = append(docs, document{key: key, data: data, seq: seq})
	}
	return docs
}

// persist issues storage writes for the supplied documents. Writes are
// fire-and-forget by default: mutations never block on I/O and a failed
// write leaves the in-memory state authoritative for this instance.
func (s *Store) persist(ctx context.Context, docs []document) {
	if len(docs) == 0 {
		return
	}

	if s.syncWrites {
		if err := s.writeDocuments(ctx, docs); err != nil {
			s.log.Error("persist state", zap.Error(err))
		}
		return
	}

	wctx := context.WithoutCancel(ctx)
	s.writes.Add(1)
	go func() {
		defer s.writes.Done()
		if err := s.writeDocuments(wctx, docs); err != nil {
			s.log.Error("persist state", zap.Error(err))
		}
	}()
}

func (s *Store) writeDocuments(ctx context.Context, docs []document) error {
	var errs error
	for _, doc := range docs {
		if err := s.writeDocument(ctx, doc); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", doc.key, err))
		}
	}
	return errs
}

// writeDocument applies the monotonic sequence guard: overlapping writes may
// complete in any order, so a write older than the last one applied for the
// same key is dropped instead of clobbering newer durable state.
func (s *Store) writeDocument(ctx context.Context, doc document) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.lastWritten[doc.key] >= doc.seq {
		metrics.PersistenceWrites.WithLabelValues(doc.key, "stale").Inc()
		return nil
	}

	if err := s.storage.Write(ctx, doc.key, doc.data); err != nil {
		metrics.PersistenceWrites.WithLabelValues(doc.key, "error").Inc()
		return err
	}

	s.lastWritten[doc.key] = doc.seq
	metrics.PersistenceWrites.WithLabelValues(doc.key, "ok").Inc()
	return nil
}
