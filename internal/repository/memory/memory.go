// Package memory is an in-process implementation of the repository
// interfaces. It mirrors the Postgres schema's constraints (unique keys,
// cascading deletes) so it can stand in for the database in development
// and in tests.
package memory

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/Kerhoff/GiftSync/internal/models"
)

// DB holds every table. Repositories created from the same DB see each
// other's rows.
type DB struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]models.User
	sessions map[uuid.UUID]models.Session
	lists    map[uuid.UUID]models.GiftList
	items    map[uuid.UUID]models.GiftItem
	links    map[uuid.UUID]models.RetailerLink
	members  map[uuid.UUID]models.ListMember
	invites  map[uuid.UUID]models.ListInvite
}

// New creates an empty database.
func New() *DB {
	return &DB{
		users:    make(map[uuid.UUID]models.User),
		sessions: make(map[uuid.UUID]models.Session),
		lists:    make(map[uuid.UUID]models.GiftList),
		items:    make(map[uuid.UUID]models.GiftItem),
		links:    make(map[uuid.UUID]models.RetailerLink),
		members:  make(map[uuid.UUID]models.ListMember),
		invites:  make(map[uuid.UUID]models.ListInvite),
	}
}

// itemCount must be called with mu held.
func (db *DB) itemCount(listID uuid.UUID) int {
	n := 0
	for _, it := range db.items {
		if it.ListID == listID {
			n++
		}
	}
	return n
}

// linksOf must be called with mu held.
func (db *DB) linksOf(itemID uuid.UUID) []models.RetailerLink {
	links := []models.RetailerLink{}
	for _, l := range db.links {
		if l.ItemID == itemID {
			links = append(links, l.Clone())
		}
	}
	sort.SliceStable(links, func(i, j int) bool {
		return links[i].CreatedAt.Before(links[j].CreatedAt)
	})
	return links
}

// deleteItem cascades to the item's links. Must be called with mu held.
func (db *DB) deleteItem(id uuid.UUID) {
	for lid, l := range db.links {
		if l.ItemID == id {
			delete(db.links, lid)
		}
	}
	delete(db.items, id)
}

// deleteList cascades to items, members and invites. Must be called with mu held.
func (db *DB) deleteList(id uuid.UUID) {
	for iid, it := range db.items {
		if it.ListID == id {
			db.deleteItem(iid)
		}
	}
	for mid, m := range db.members {
		if m.ListID == id {
			delete(db.members, mid)
		}
	}
	for vid, v := range db.invites {
		if v.ListID == id {
			delete(db.invites, vid)
		}
	}
	delete(db.lists, id)
}
