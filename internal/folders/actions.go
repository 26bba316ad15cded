package folders

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sessiondeck/folderdeck/internal/capability"
)

// Actions bundles the interactive folder flows: the operations that suspend
// on a modal or prompt before mutating the store. A dismissed dialog aborts
// the mutation silently.
type Actions struct {
	store *Store
	ux    capability.Interactor
	log   *zap.Logger
}

// NewActions wires the interactive flows over a store and the host
// interaction capability.
func NewActions(store *Store, ux capability.Interactor, log *zap.Logger) (*Actions, error) {
	if store == nil {
		return nil, fmt.Errorf("folders: store is required")
	}
	if ux == nil {
		ux = capability.NopInteractor{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Actions{store: store, ux: ux, log: log}, nil
}

// DeleteFolderWithConfirm asks the user to confirm, reporting how many
// subfolders and session assignments the cascade will remove, then deletes.
// Returns whether the folder was deleted.
func (a *Actions) DeleteFolderWithConfirm(ctx context.Context, id string) (bool, error) {
	folder := a.store.Folder(id)
	if folder == nil {
		return false, nil
	}

	descendants := a.store.DescendantFolderIDs(id)
	affected := a.affectedSessionCount(id, descendants)

	message := fmt.Sprintf("Delete folder %q?", folder.Name)
	if len(descendants) > 0 {
		message = fmt.Sprintf("Delete folder %q and %d subfolder(s)?", folder.Name, len(descendants))
	}
	if affected > 0 {
		message += fmt.Sprintf(" %d session(s) will become unassigned.", affected)
	}

	confirmed, err := a.ux.Confirm(ctx, message)
	if err != nil || !confirmed {
		// Dismissal and cancellation both mean: do not mutate.
		return false, nil
	}

	deleted := a.store.DeleteFolder(ctx, id)
	if deleted {
		a.ux.Notify(capability.NotifySuccess, fmt.Sprintf("Deleted folder %q", folder.Name))
	}
	return deleted, nil
}

// RenameFolderWithPrompt asks for a new name pre-filled with the current
// one. An empty or cancelled prompt leaves the folder untouched.
func (a *Actions) RenameFolderWithPrompt(ctx context.Context, id string) (*Folder, error) {
	folder := a.store.Folder(id)
	if folder == nil {
		return nil, nil
	}

	name, err := a.ux.Prompt(ctx, "Rename folder", folder.Name)
	if err != nil {
		return nil, nil
	}
	name = strings.TrimSpace(name)
	if name == "" || name == folder.Name {
		return folder, nil
	}

	updated := a.store.UpdateFolder(ctx, id, FolderUpdate{Name: &name})
	if updated == nil {
		a.log.Warn("rename folder failed", zap.String("folder_id", id))
		return nil, nil
	}

	a.ux.Notify(capability.NotifySuccess, fmt.Sprintf("Renamed folder to %q", updated.Name))
	return updated, nil
}

// CreateFolderWithPrompt asks for a folder name and creates it under
// parentID. An empty or cancelled prompt creates nothing.
func (a *Actions) CreateFolderWithPrompt(ctx context.Context, parentID *string) (*Folder, error) {
	name, err := a.ux.Prompt(ctx, "New folder name", "")
	if err != nil {
		return nil, nil
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	folder, err := a.store.CreateFolder(ctx, name, "", parentID)
	if err != nil {
		a.ux.Notify(capability.NotifyError, "Could not create folder")
		return nil, err
	}

	a.ux.Notify(capability.NotifySuccess, fmt.Sprintf("Created folder %q", folder.Name))
	return folder, nil
}

func (a *Actions) affectedSessionCount(id string, descendants []string) int {
	doomed := make(map[string]struct{}, len(descendants)+1)
	doomed[id] = struct{}{}
	for _, descendant := range descendants {
		doomed[descendant] = struct{}{}
	}

	var count int
	_, assignments, _ := a.store.Snapshot()
	for _, folderID := range assignments {
		if _, gone := doomed[folderID]; gone {
			count++
		}
	}
	return count
}
