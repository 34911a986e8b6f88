// Package state holds the single in-memory snapshot of the inventory and the
// closed set of actions that transition it.
package state

import (
	"slices"

	"github.com/and161185/stock-keeper/internal/model"
)

// Snapshot is the in-memory view used for rendering.
type Snapshot struct {
	Items    []model.Item
	JobSites []model.JobSite
	Usage    []model.Usage
	Loading  bool
	Online   bool
}

// Initial is the snapshot before anything is loaded.
func Initial() Snapshot {
	return Snapshot{Online: true}
}

// Action is a named transition. The set is closed to this package.
type Action interface{ action() }

type (
	SetLoading      struct{ Loading bool }
	SetOnlineStatus struct{ Online bool }
	SetItems        struct{ Items []model.Item }
	AddItem         struct{ Item model.Item }
	UpdateItem      struct{ Item model.Item }
	DeleteItem      struct{ ID string }
	SetJobSites     struct{ JobSites []model.JobSite }
	AddJobSite      struct{ JobSite model.JobSite }
	SetUsage        struct{ Usage []model.Usage }
	// AddUsage appends the record and decrements the referenced item in the same transition.
	AddUsage     struct{ Usage model.Usage }
	BulkAddItems struct{ Items []model.Item }
)

func (SetLoading) action()      {}
func (SetOnlineStatus) action() {}
func (SetItems) action()        {}
func (AddItem) action()         {}
func (UpdateItem) action()      {}
func (DeleteItem) action()      {}
func (SetJobSites) action()     {}
func (AddJobSite) action()      {}
func (SetUsage) action()        {}
func (AddUsage) action()        {}
func (BulkAddItems) action()    {}

// Reduce returns the snapshot after applying a. It never mutates s;
// every changed collection is a fresh slice. Unknown actions return s unchanged.
func Reduce(s Snapshot, a Action) Snapshot {
	switch a := a.(type) {
	case SetLoading:
		s.Loading = a.Loading
	case SetOnlineStatus:
		s.Online = a.Online
	case SetItems:
		s.Items = slices.Clone(a.Items)
	case AddItem:
		s.Items = append(slices.Clone(s.Items), a.Item)
	case UpdateItem:
		items := make([]model.Item, len(s.Items))
		for i, it := range s.Items {
			if it.ID == a.Item.ID {
				it = a.Item
			}
			items[i] = it
		}
		s.Items = items
	case DeleteItem:
		s.Items = slices.DeleteFunc(slices.Clone(s.Items), func(it model.Item) bool {
			return it.ID == a.ID
		})
	case SetJobSites:
		s.JobSites = slices.Clone(a.JobSites)
	case AddJobSite:
		s.JobSites = append(slices.Clone(s.JobSites), a.JobSite)
	case SetUsage:
		s.Usage = slices.Clone(a.Usage)
	case AddUsage:
		u := a.Usage
		items := make([]model.Item, len(s.Items))
		for i, it := range s.Items {
			if it.ID == u.ItemID {
				it.Quantity = model.Decrement(it.Quantity, u.QuantityUsed)
				it.UpdatedAt = u.UsedAt
			}
			items[i] = it
		}
		s.Items = items
		s.Usage = append(slices.Clone(s.Usage), u)
	case BulkAddItems:
		s.Items = append(slices.Clone(s.Items), a.Items...)
	}
	return s
}

// clone copies every collection so callers cannot alias the store's snapshot.
func (s Snapshot) clone() Snapshot {
	s.Items = slices.Clone(s.Items)
	s.JobSites = slices.Clone(s.JobSites)
	s.Usage = slices.Clone(s.Usage)
	return s
}

// Item looks up an item by id.
func (s Snapshot) Item(id string) (model.Item, bool) {
	for _, it := range s.Items {
		if it.ID == id {
			return it, true
		}
	}
	return model.Item{}, false
}

// JobSite looks up a job site by id.
func (s Snapshot) JobSite(id string) (model.JobSite, bool) {
	for _, js := range s.JobSites {
		if js.ID == id {
			return js, true
		}
	}
	return model.JobSite{}, false
}
