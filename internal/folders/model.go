package folders

// DefaultColor is applied when a folder is created without an explicit color.
const DefaultColor = "#3b82f6"

// Folder is one organizational node in the forest.
type Folder struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Color    string  `json:"color"`
	ParentID *string `json:"parent_id"`
	Order    int     `json:"order"`
}

// Clone returns a deep copy so callers cannot mutate store state.
func (f *Folder) Clone() *Folder {
	if f == nil {
		return nil
	}

	cpy := *f
	if f.ParentID != nil {
		parent := *f.ParentID
		cpy.ParentID = &parent
	}
	return &cpy
}

// ParentChange expresses an explicit re-parent in a partial update. A nil ID
// moves the folder to the root level.
type ParentChange struct {
	ID *string
}

// FolderUpdate carries partial update semantics: nil fields are left
// untouched, present fields are applied.
type FolderUpdate struct {
	Name   *string
	Color  *string
	Parent *ParentChange
	Order  *int
}

// ChangeKind classifies store change notifications.
type ChangeKind string

const (
	ChangeFolderCreated     ChangeKind = "folder.created"
	ChangeFolderUpdated     ChangeKind = "folder.updated"
	ChangeFolderDeleted     ChangeKind = "folder.deleted"
	ChangeAssignmentUpdated ChangeKind = "assignment.updated"
	ChangeExpansionUpdated  ChangeKind = "expansion.updated"
)

// Change is delivered to subscribers after every successful mutation.
type Change struct {
	Kind      ChangeKind `json:"kind"`
	FolderID  string     `json:"folder_id,omitempty"`
	SessionID string     `json:"session_id,omitempty"`
}
