package folders

import (
	"sort"

	"github.com/sessiondeck/folderdeck/internal/capability"
)

// TreeNode is one folder in the rendered tree. Children and Sessions are
// populated only when the folder is expanded; SessionCount always reports
// the direct member count, not the cumulative count over descendants.
type TreeNode struct {
	Folder       Folder               `json:"folder"`
	Depth        int                  `json:"depth"`
	Expanded     bool                 `json:"expanded"`
	SessionCount int                  `json:"session_count"`
	Sessions     []capability.Session `json:"sessions,omitempty"`
	Children     []TreeNode           `json:"children,omitempty"`
}

// Tree is the sidebar projection: root folders in order, then the
// unassigned bucket. The bucket is rendered only while at least one folder
// exists; with no folders the plain session list needs no grouping.
type Tree struct {
	Roots          []TreeNode           `json:"roots"`
	Unassigned     []capability.Session `json:"unassigned"`
	ShowUnassigned bool                 `json:"show_unassigned"`
}

// FilterTab is one entry in the home-panel filter row. The synthetic "All"
// tab carries a nil SessionIDs slice, meaning unrestricted; folder tabs
// carry the exact (possibly empty) subset of matching session ids.
type FilterTab struct {
	ID         string   `json:"id,omitempty"`
	Label      string   `json:"label"`
	Active     bool     `json:"active"`
	SessionIDs []string `json:"session_ids"`
}

type treeBuilder struct {
	node     TreeNode
	children []*treeBuilder
}

// ProjectTree derives the sidebar render tree from a model snapshot and the
// host session list. It is a pure function: inputs are not mutated and no
// store access happens. Assignments pointing at unknown folder ids are
// treated as unassigned, which also covers dangling assignments left by an
// interrupted delete.
func ProjectTree(folderList []Folder, assignments map[string]string, sessions []capability.Session, expanded map[string]bool) Tree {
	builders := make(map[string]*treeBuilder, len(folderList))
	for _, folder := range folderList {
		builders[folder.ID] = &treeBuilder{node: TreeNode{Folder: folder}}
	}

	sessionsByFolder := make(map[string][]capability.Session)
	var unassigned []capability.Session
	for _, session := range sessions {
		folderID, ok := assignments[session.ID]
		if !ok {
			unassigned = append(unassigned, session)
			continue
		}
		if _, known := builders[folderID]; !known {
			unassigned = append(unassigned, session)
			continue
		}
		sessionsByFolder[folderID] = append(sessionsByFolder[folderID], session)
	}

	// Attach children in encounter order; folders whose parent is missing
	// surface at the root rather than disappearing.
	var roots []*treeBuilder
	for _, folder := range folderList {
		builder := builders[folder.ID]
		if folder.ParentID != nil {
			if parent, ok := builders[*folder.ParentID]; ok {
				parent.children = append(parent.children, builder)
				continue
			}
		}
		roots = append(roots, builder)
	}

	sortSiblings(roots)

	tree := Tree{
		Unassigned:     unassigned,
		ShowUnassigned: len(folderList) > 0,
	}
	for _, root := range roots {
		tree.Roots = append(tree.Roots, finalizeNode(root, 0, expanded, sessionsByFolder))
	}
	return tree
}

func finalizeNode(builder *treeBuilder, depth int, expanded map[string]bool, sessionsByFolder map[string][]capability.Session) TreeNode {
	node := builder.node
	node.Depth = depth

	members := sessionsByFolder[node.Folder.ID]
	node.SessionCount = len(members)
	node.Expanded = expanded[node.Folder.ID]

	if node.Expanded {
		sortSiblings(builder.children)
		for _, child := range builder.children {
			node.Children = append(node.Children, finalizeNode(child, depth+1, expanded, sessionsByFolder))
		}
		node.Sessions = members
	}

	return node
}

// sortSiblings orders a sibling group by Order ascending, keeping encounter
// order for ties.
func sortSiblings(siblings []*treeBuilder) {
	sort.SliceStable(siblings, func(i, j int) bool {
		return siblings[i].node.Folder.Order < siblings[j].node.Folder.Order
	})
}

// ProjectFilterTabs derives the home-panel filter row: a synthetic "All"
// entry followed by root folders in order. Each folder tab carries the
// session ids directly assigned to it; "All" carries nil, the unrestricted
// signal.
func ProjectFilterTabs(folderList []Folder, assignments map[string]string, sessions []capability.Session, activeFolderID *string) []FilterTab {
	tabs := []FilterTab{{Label: "All", Active: activeFolderID == nil}}

	var roots []*treeBuilder
	for _, folder := range folderList {
		if folder.ParentID == nil {
			roots = append(roots, &treeBuilder{node: TreeNode{Folder: folder}})
		}
	}
	sortSiblings(roots)

	for _, root := range roots {
		folder := root.node.Folder
		ids := []string{}
		for _, session := range sessions {
			if assignments[session.ID] == folder.ID {
				ids = append(ids, session.ID)
			}
		}
		tabs = append(tabs, FilterTab{
			ID:         folder.ID,
			Label:      folder.Name,
			Active:     activeFolderID != nil && *activeFolderID == folder.ID,
			SessionIDs: ids,
		})
	}

	return tabs
}
