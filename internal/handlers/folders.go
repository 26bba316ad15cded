package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sessiondeck/folderdeck/internal/capability"
	"github.com/sessiondeck/folderdeck/internal/folders"
	appErrors "github.com/sessiondeck/folderdeck/pkg/errors"
	"github.com/sessiondeck/folderdeck/pkg/response"
)

// FolderHandler exposes the folder store over HTTP for host panels and
// other extensions. Folder names pass through as JSON text only; rendering
// them into markup is the presentation layer's escaping problem.
type FolderHandler struct {
	store    *folders.Store
	registry capability.SessionRegistry
}

// NewFolderHandler constructs a folder handler.
func NewFolderHandler(store *folders.Store, registry capability.SessionRegistry) *FolderHandler {
	return &FolderHandler{store: store, registry: registry}
}

// List returns every folder in encounter order.
func (h *FolderHandler) List(c *gin.Context) {
	response.Success(c, http.StatusOK, h.store.Folders())
}

// Tree returns the sidebar projection over the live session list.
func (h *FolderHandler) Tree(c *gin.Context) {
	folderList, assignments, expanded := h.store.Snapshot()
	sessions := h.registry.Sessions(c.Request.Context())

	tree := folders.ProjectTree(folderList, assignments, sessions, expanded)
	response.Success(c, http.StatusOK, tree)
}

// Tabs returns the home-panel filter row. The optional "active" query
// parameter marks the selected folder.
func (h *FolderHandler) Tabs(c *gin.Context) {
	var active *string
	if value := strings.TrimSpace(c.Query("active")); value != "" {
		active = &value
	}

	folderList, assignments, _ := h.store.Snapshot()
	sessions := h.registry.Sessions(c.Request.Context())

	tabs := folders.ProjectFilterTabs(folderList, assignments, sessions, active)
	response.Success(c, http.StatusOK, tabs)
}

type createFolderPayload struct {
	Name     string  `json:"name" validate:"required,min=1,max=128"`
	Color    string  `json:"color" validate:"omitempty,max=32"`
	ParentID *string `json:"parent_id"`
}

// Create registers a new folder.
func (h *FolderHandler) Create(c *gin.Context) {
	var payload createFolderPayload
	if !bindAndValidate(c, &payload) {
		return
	}

	folder, err := h.store.CreateFolder(c.Request.Context(), payload.Name, payload.Color, payload.ParentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, folder)
}

type updateFolderPayload struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=128"`
	Color       *string `json:"color" validate:"omitempty,max=32"`
	ParentID    *string `json:"parent_id"`
	ClearParent bool    `json:"clear_parent"`
	Order       *int    `json:"order"`
}

// Update applies a partial folder update.
func (h *FolderHandler) Update(c *gin.Context) {
	id := c.Param("id")
	if h.store.Folder(id) == nil {
		response.Error(c, appErrors.NewNotFound("folder not found"))
		return
	}

	var payload updateFolderPayload
	if !bindAndValidate(c, &payload) {
		return
	}

	update := folders.FolderUpdate{
		Name:  payload.Name,
		Color: payload.Color,
		Order: payload.Order,
	}
	switch {
	case payload.ClearParent:
		update.Parent = &folders.ParentChange{}
	case payload.ParentID != nil:
		update.Parent = &folders.ParentChange{ID: payload.ParentID}
	}

	updated := h.store.UpdateFolder(c.Request.Context(), id, update)
	if updated == nil {
		// The folder existed a moment ago, so the only rejection left is
		// the cycle guard.
		response.Error(c, appErrors.ErrFolderCycle)
		return
	}

	response.Success(c, http.StatusOK, updated)
}

// Delete removes a folder and its descendants.
func (h *FolderHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	descendants := h.store.DescendantFolderIDs(id)
	if !h.store.DeleteFolder(c.Request.Context(), id) {
		response.Error(c, appErrors.NewNotFound("folder not found"))
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"deleted":             true,
		"descendants_removed": len(descendants),
	})
}

type expandedPayload struct {
	Expanded bool `json:"expanded"`
}

// SetExpanded records a folder's expansion state.
func (h *FolderHandler) SetExpanded(c *gin.Context) {
	var payload expandedPayload
	if !bindAndValidate(c, &payload) {
		return
	}

	id := c.Param("id")
	h.store.SetExpanded(c.Request.Context(), id, payload.Expanded)
	response.Success(c, http.StatusOK, gin.H{"expanded": payload.Expanded})
}

type moveSessionPayload struct {
	FolderID *string `json:"folder_id"`
}

// MoveSession assigns a session to a folder, or clears the assignment when
// folder_id is null.
func (h *FolderHandler) MoveSession(c *gin.Context) {
	var payload moveSessionPayload
	if !bindAndValidate(c, &payload) {
		return
	}

	sessionID := c.Param("id")
	h.store.MoveSessionToFolder(c.Request.Context(), sessionID, payload.FolderID)

	response.Success(c, http.StatusOK, gin.H{
		"session_id": sessionID,
		"folder_id":  payload.FolderID,
	})
}

type sessionView struct {
	capability.Session
	FolderID *string `json:"folder_id"`
}

type syncSessionsPayload struct {
	Sessions []capability.Session `json:"sessions" validate:"dive"`
}

// SyncSessions replaces the registry contents with the host's current
// session list. Hosts that expose their own registry return 501 here.
func (h *FolderHandler) SyncSessions(c *gin.Context) {
	sink, ok := h.registry.(capability.SessionSink)
	if !ok {
		response.Error(c, appErrors.New("NOT_IMPLEMENTED", "session registry is read-only", http.StatusNotImplemented))
		return
	}

	var payload syncSessionsPayload
	if !bindAndValidate(c, &payload) {
		return
	}

	sink.SetSessions(payload.Sessions)
	response.Success(c, http.StatusOK, gin.H{"count": len(payload.Sessions)})
}

// Sessions lists the host's sessions annotated with their assignment.
func (h *FolderHandler) Sessions(c *gin.Context) {
	sessions := h.registry.Sessions(c.Request.Context())

	views := make([]sessionView, 0, len(sessions))
	for _, session := range sessions {
		views = append(views, sessionView{
			Session:  session,
			FolderID: h.store.SessionFolder(session.ID),
		})
	}

	response.Success(c, http.StatusOK, views)
}
