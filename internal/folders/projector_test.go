package folders

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sessiondeck/folderdeck/internal/capability"
)

func strPtr(s string) *string { return &s }

func TestProjectTreeOrdersSiblingsByOrder(t *testing.T) {
	folderList := []Folder{
		{ID: "f1", Name: "Second", Order: 1},
		{ID: "f2", Name: "First", Order: 0},
		{ID: "f3", Name: "Third", Order: 2},
	}

	tree := ProjectTree(folderList, nil, nil, nil)

	require.Len(t, tree.Roots, 3)
	require.Equal(t, "First", tree.Roots[0].Folder.Name)
	require.Equal(t, "Second", tree.Roots[1].Folder.Name)
	require.Equal(t, "Third", tree.Roots[2].Folder.Name)
}

func TestProjectTreeStableOrderOnTies(t *testing.T) {
	folderList := []Folder{
		{ID: "f1", Name: "Alpha", Order: 0},
		{ID: "f2", Name: "Beta", Order: 0},
		{ID: "f3", Name: "Gamma", Order: 0},
	}

	tree := ProjectTree(folderList, nil, nil, nil)

	require.Equal(t, "Alpha", tree.Roots[0].Folder.Name)
	require.Equal(t, "Beta", tree.Roots[1].Folder.Name)
	require.Equal(t, "Gamma", tree.Roots[2].Folder.Name)
}

func TestProjectTreeRendersSwappedOrder(t *testing.T) {
	// Two roots created in one order, then manually swapped via order
	// updates: the tree must follow order, not creation order.
	folderList := []Folder{
		{ID: "f1", Name: "WasFirst", Order: 1},
		{ID: "f2", Name: "WasSecond", Order: 0},
	}

	tree := ProjectTree(folderList, nil, nil, nil)

	require.Equal(t, "WasSecond", tree.Roots[0].Folder.Name)
	require.Equal(t, "WasFirst", tree.Roots[1].Folder.Name)
}

func TestProjectTreeExpansionGatesChildrenAndSessions(t *testing.T) {
	folderList := []Folder{
		{ID: "root", Name: "Root", Order: 0},
		{ID: "child", Name: "Child", ParentID: strPtr("root"), Order: 0},
	}
	assignments := map[string]string{"s1": "root", "s2": "root"}
	sessions := []capability.Session{{ID: "s1"}, {ID: "s2"}}

	collapsed := ProjectTree(folderList, assignments, sessions, nil)
	require.Len(t, collapsed.Roots, 1)
	require.False(t, collapsed.Roots[0].Expanded)
	require.Empty(t, collapsed.Roots[0].Children)
	require.Empty(t, collapsed.Roots[0].Sessions)
	// Direct member count is reported even while collapsed.
	require.Equal(t, 2, collapsed.Roots[0].SessionCount)

	expanded := ProjectTree(folderList, assignments, sessions, map[string]bool{"root": true})
	require.True(t, expanded.Roots[0].Expanded)
	require.Len(t, expanded.Roots[0].Children, 1)
	require.Equal(t, "Child", expanded.Roots[0].Children[0].Folder.Name)
	require.Equal(t, 1, expanded.Roots[0].Children[0].Depth)
	require.Len(t, expanded.Roots[0].Sessions, 2)
}

func TestProjectTreeCountsAreDirectNotCumulative(t *testing.T) {
	folderList := []Folder{
		{ID: "root", Name: "Root", Order: 0},
		{ID: "child", Name: "Child", ParentID: strPtr("root"), Order: 0},
	}
	assignments := map[string]string{"s1": "root", "s2": "child", "s3": "child"}
	sessions := []capability.Session{{ID: "s1"}, {ID: "s2"}, {ID: "s3"}}
	expanded := map[string]bool{"root": true, "child": true}

	tree := ProjectTree(folderList, assignments, sessions, expanded)

	require.Equal(t, 1, tree.Roots[0].SessionCount)
	require.Equal(t, 2, tree.Roots[0].Children[0].SessionCount)
}

func TestProjectTreeUnassignedBucket(t *testing.T) {
	sessions := []capability.Session{{ID: "s1"}, {ID: "s2"}}

	// No folders: the bucket is not shown at all.
	empty := ProjectTree(nil, nil, sessions, nil)
	require.False(t, empty.ShowUnassigned)
	require.Len(t, empty.Unassigned, 2)

	folderList := []Folder{{ID: "f1", Name: "Work", Order: 0}}
	assignments := map[string]string{"s1": "f1"}

	tree := ProjectTree(folderList, assignments, sessions, nil)
	require.True(t, tree.ShowUnassigned)
	require.Len(t, tree.Unassigned, 1)
	require.Equal(t, "s2", tree.Unassigned[0].ID)
}

func TestProjectTreeToleratesDanglingAssignments(t *testing.T) {
	folderList := []Folder{{ID: "f1", Name: "Work", Order: 0}}
	// s1 points at a folder id that no longer exists, e.g. after a crash
	// between the two delete writes.
	assignments := map[string]string{"s1": "deleted-folder"}
	sessions := []capability.Session{{ID: "s1"}}

	tree := ProjectTree(folderList, assignments, sessions, map[string]bool{"f1": true})

	require.Empty(t, tree.Roots[0].Sessions)
	require.Len(t, tree.Unassigned, 1)
}

func TestProjectTreeSurfacesOrphanedSubtreesAtRoot(t *testing.T) {
	folderList := []Folder{
		{ID: "f1", Name: "Visible", ParentID: strPtr("gone"), Order: 0},
	}

	tree := ProjectTree(folderList, nil, nil, nil)

	require.Len(t, tree.Roots, 1)
	require.Equal(t, "Visible", tree.Roots[0].Folder.Name)
	require.Equal(t, 0, tree.Roots[0].Depth)
}

func TestProjectTreeUnboundedDepth(t *testing.T) {
	const depth = 500

	folderList := make([]Folder, 0, depth)
	expanded := make(map[string]bool, depth)
	var parent *string
	for i := 0; i < depth; i++ {
		id := fmt.Sprintf("n-%d", i)
		folderList = append(folderList, Folder{ID: id, Name: id, ParentID: parent})
		expanded[id] = true
		next := id
		parent = &next
	}

	tree := ProjectTree(folderList, nil, nil, expanded)

	node := tree.Roots[0]
	for i := 1; i < depth; i++ {
		require.Len(t, node.Children, 1)
		node = node.Children[0]
		require.Equal(t, i, node.Depth)
	}
}

func TestProjectFilterTabs(t *testing.T) {
	folderList := []Folder{
		{ID: "f1", Name: "Work", Order: 1},
		{ID: "f2", Name: "Play", Order: 0},
		{ID: "f3", Name: "Nested", ParentID: strPtr("f1"), Order: 0},
	}
	assignments := map[string]string{"s1": "f1", "s2": "f2", "s3": "f3"}
	sessions := []capability.Session{{ID: "s1"}, {ID: "s2"}, {ID: "s3"}, {ID: "s4"}}

	tabs := ProjectFilterTabs(folderList, assignments, sessions, nil)

	// "All" first with the unrestricted nil subset; only root folders follow,
	// ordered by Order.
	require.Len(t, tabs, 3)
	require.Equal(t, "All", tabs[0].Label)
	require.True(t, tabs[0].Active)
	require.Nil(t, tabs[0].SessionIDs)

	require.Equal(t, "Play", tabs[1].Label)
	require.Equal(t, []string{"s2"}, tabs[1].SessionIDs)

	require.Equal(t, "Work", tabs[2].Label)
	require.Equal(t, []string{"s1"}, tabs[2].SessionIDs)
}

func TestProjectFilterTabsActiveFolder(t *testing.T) {
	folderList := []Folder{{ID: "f1", Name: "Work", Order: 0}}

	tabs := ProjectFilterTabs(folderList, nil, nil, strPtr("f1"))

	require.False(t, tabs[0].Active)
	require.True(t, tabs[1].Active)
	require.Equal(t, []string{}, tabs[1].SessionIDs)
}
