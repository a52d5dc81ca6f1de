package categories

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
)

// PathSeparator joins ancestor names in a display path.
const PathSeparator = " > "

// Match finds the category whose name equals name under Unicode case folding.
// Surrounding whitespace is ignored; no partial or fuzzy matching is done.
func Match(active []Category, name string) (Category, bool) {
	fold := cases.Fold()
	want := fold.String(strings.TrimSpace(name))
	if want == "" {
		return Category{}, false
	}
	for _, c := range active {
		if fold.String(strings.TrimSpace(c.Name)) == want {
			return c, true
		}
	}
	return Category{}, false
}

// Names returns the category names in order.
func Names(cats []Category) []string {
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.Name
	}
	return names
}

// Hierarchy indexes a loaded set of categories for parent/child navigation.
type Hierarchy struct {
	byID     map[uuid.UUID]Category
	children map[uuid.UUID][]Category
	roots    []Category
}

// NewHierarchy indexes cats. A category whose parent is not in cats is a root.
func NewHierarchy(cats []Category) Hierarchy {
	h := Hierarchy{
		byID:     make(map[uuid.UUID]Category, len(cats)),
		children: make(map[uuid.UUID][]Category),
	}
	for _, c := range cats {
		h.byID[c.ID] = c
	}
	for _, c := range cats {
		if c.ParentID != nil {
			if _, ok := h.byID[*c.ParentID]; ok {
				h.children[*c.ParentID] = append(h.children[*c.ParentID], c)
				continue
			}
		}
		h.roots = append(h.roots, c)
	}
	for id := range h.children {
		sortCategories(h.children[id])
	}
	sortCategories(h.roots)
	return h
}

// Children returns the direct children of id.
func (h Hierarchy) Children(id uuid.UUID) []Category {
	return h.children[id]
}

// Parent returns the parent of id when it is part of the hierarchy.
func (h Hierarchy) Parent(id uuid.UUID) (Category, bool) {
	c, ok := h.byID[id]
	if !ok || c.ParentID == nil {
		return Category{}, false
	}
	p, ok := h.byID[*c.ParentID]
	return p, ok
}

// Ancestors returns the chain from the root down to id, inclusive.
func (h Hierarchy) Ancestors(id uuid.UUID) []Category {
	var chain []Category
	seen := make(map[uuid.UUID]bool)
	for cur, ok := h.byID[id]; ok && !seen[cur.ID]; {
		seen[cur.ID] = true
		chain = append(chain, cur)
		if cur.ParentID == nil {
			break
		}
		cur, ok = h.byID[*cur.ParentID]
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// Level is 0 for a root, 1 for its children and so on.
func (h Hierarchy) Level(id uuid.UUID) int {
	if n := len(h.Ancestors(id)); n > 0 {
		return n - 1
	}
	return 0
}

// Path renders the ancestor names of id, e.g. "Cordas > Violões".
func (h Hierarchy) Path(id uuid.UUID) string {
	return strings.Join(Names(h.Ancestors(id)), PathSeparator)
}

// Tree returns the forest of categories with level and path filled in.
func (h Hierarchy) Tree() []TreeNode {
	return h.nodes(h.roots, 0, "")
}

func (h Hierarchy) nodes(cats []Category, level int, prefix string) []TreeNode {
	out := make([]TreeNode, 0, len(cats))
	for _, c := range cats {
		path := c.Name
		if prefix != "" {
			path = prefix + PathSeparator + c.Name
		}
		out = append(out, TreeNode{
			Category: c,
			Level:    level,
			Path:     path,
			Children: h.nodes(h.children[c.ID], level+1, path),
		})
	}
	return out
}

func sortCategories(cats []Category) {
	sort.SliceStable(cats, func(i, j int) bool {
		if cats[i].SortOrder != cats[j].SortOrder {
			return cats[i].SortOrder < cats[j].SortOrder
		}
		return cats[i].Name < cats[j].Name
	})
}
