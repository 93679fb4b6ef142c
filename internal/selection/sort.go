package selection

import (
	"slices"
	"sort"

	"github.com/rebeliceyang/docfilter/internal/models"
)

// sorter derives the ordered item view. Its caches live for one call only,
// so a change to items or document counts can never observe stale entries.
type sorter struct {
	byID     map[models.ItemID]models.Item
	children map[models.ItemID][]models.Item
	counts   map[models.ItemID]int
	states   map[models.ItemID]models.ToggleableItemState

	effective map[models.ItemID]int  // memoized ancestor counts
	active    map[models.ItemID]bool // branch contains a selected or excluded item
}

// sortedItems orders the items: sentinels first, then branch roots with a
// selection ahead of the rest, then by effective document count
// (descending), then by original order. Children follow their parent.
func (m *Model) sortedItems() []models.Item {
	s := &sorter{
		byID:      make(map[models.ItemID]models.Item, len(m.items)),
		children:  make(map[models.ItemID][]models.Item),
		counts:    m.documentCounts,
		states:    m.committed.items,
		effective: make(map[models.ItemID]int),
		active:    make(map[models.ItemID]bool),
	}
	for _, item := range m.items {
		s.byID[item.ID] = item
	}

	var roots []models.Item
	for _, item := range m.items {
		if _, ok := s.byID[item.Parent]; item.HasParent() && ok && item.Parent != item.ID {
			s.children[item.Parent] = append(s.children[item.Parent], item)
			continue
		}
		roots = append(roots, item)
	}

	view := make([]models.Item, 0, len(m.items)+2)
	view = append(view,
		models.Item{ID: models.NullID, Name: m.sentinelName},
		models.Item{ID: models.NegativeNullID, Name: m.sentinelName},
	)

	visited := make(map[models.ItemID]bool, len(m.items))
	var walk func(items []models.Item)
	walk = func(items []models.Item) {
		ordered := slices.Clone(items)
		sort.SliceStable(ordered, func(i, j int) bool {
			return s.less(ordered[i].ID, ordered[j].ID)
		})
		for _, item := range ordered {
			if visited[item.ID] {
				continue
			}
			visited[item.ID] = true
			view = append(view, item)
			walk(s.children[item.ID])
		}
	}
	walk(roots)

	// items caught in a parent cycle have no reachable root
	for _, item := range m.items {
		if !visited[item.ID] {
			visited[item.ID] = true
			view = append(view, item)
		}
	}
	return view
}

func (s *sorter) less(a, b models.ItemID) bool {
	activeA, activeB := s.isActive(a, nil), s.isActive(b, nil)
	if activeA != activeB {
		return activeA
	}
	if len(s.counts) > 0 {
		return s.effectiveCount(a, nil) > s.effectiveCount(b, nil)
	}
	return false
}

// effectiveCount is the item's own count, else its nearest counted ancestor's
func (s *sorter) effectiveCount(id models.ItemID, seen map[models.ItemID]bool) int {
	if count, ok := s.counts[id]; ok {
		return count
	}
	if count, ok := s.effective[id]; ok {
		return count
	}

	count := 0
	item, ok := s.byID[id]
	if ok && item.HasParent() && !seen[id] {
		if seen == nil {
			seen = make(map[models.ItemID]bool)
		}
		seen[id] = true
		count = s.effectiveCount(item.Parent, seen)
	}
	s.effective[id] = count
	return count
}

func (s *sorter) isActive(id models.ItemID, seen map[models.ItemID]bool) bool {
	if active, ok := s.active[id]; ok {
		return active
	}

	active := s.states[id] != models.NotSelected
	if !active && !seen[id] {
		if seen == nil {
			seen = make(map[models.ItemID]bool)
		}
		seen[id] = true
		for _, child := range s.children[id] {
			if s.isActive(child.ID, seen) {
				active = true
				break
			}
		}
	}
	s.active[id] = active
	return active
}

func sortIDs(ids []models.ItemID) {
	slices.Sort(ids)
}
