package snapshot

import (
	"sort"

	roaring "github.com/RoaringBitmap/roaring"
)

// EntryID is the zero-based sequential identifier of an entry within the
// sorted snapshot. It is intentionally small and contiguous to support
// roaring bitmap usage.
type EntryID = uint32

// AttributeIndex holds roaring bitmaps keyed by attribute value.
// Example: Kind["file"] -> bitmap of EntryIDs that are files.
type AttributeIndex struct {
	Kind  map[string]*roaring.Bitmap
	Owner map[string]*roaring.Bitmap
	Group map[string]*roaring.Bitmap
}

// NewAttributeIndex creates an empty AttributeIndex.
func NewAttributeIndex() *AttributeIndex {
	return &AttributeIndex{
		Kind:  make(map[string]*roaring.Bitmap),
		Owner: make(map[string]*roaring.Bitmap),
		Group: make(map[string]*roaring.Bitmap),
	}
}

// BuildAttributeIndex indexes a snapshot. Entry ids correspond to the
// position of each entry in ascending lexicographic path order, matching the
// sequential ids assigned by the report writer.
func BuildAttributeIndex(snap *Snapshot) *AttributeIndex {
	idx := NewAttributeIndex()

	var id EntryID
	snap.WalkEntries(func(_ string, entry FileSystemEntry) bool {
		idx.AddKind(entry.Kind.String(), id)
		idx.AddOwner(entry.Owner, id)
		idx.AddGroup(entry.Group, id)
		id++
		return false
	})

	return idx
}

// AddKind records an entry id under a kind value.
func (ai *AttributeIndex) AddKind(kind string, id EntryID) {
	ai.add(ai.Kind, kind, id)
}

// AddOwner records an entry id under an owner value.
func (ai *AttributeIndex) AddOwner(owner string, id EntryID) {
	ai.add(ai.Owner, owner, id)
}

// AddGroup records an entry id under a group value.
func (ai *AttributeIndex) AddGroup(group string, id EntryID) {
	ai.add(ai.Group, group, id)
}

func (ai *AttributeIndex) add(m map[string]*roaring.Bitmap, value string, id EntryID) {
	bm, ok := m[value]
	if !ok {
		bm = roaring.New()
		m[value] = bm
	}
	bm.Add(id)
}

// KindCount returns the number of entries recorded with the given kind.
func (ai *AttributeIndex) KindCount(kind string) uint64 {
	return cardinality(ai.Kind[kind])
}

// OwnerCount returns the number of entries owned by the given user.
func (ai *AttributeIndex) OwnerCount(owner string) uint64 {
	return cardinality(ai.Owner[owner])
}

// Owners returns every indexed owner value in sorted order.
func (ai *AttributeIndex) Owners() []string {
	owners := make([]string, 0, len(ai.Owner))
	for owner := range ai.Owner {
		owners = append(owners, owner)
	}
	sort.Strings(owners)
	return owners
}

// OwnedOfKind returns the intersection of an owner bitmap and a kind bitmap.
func (ai *AttributeIndex) OwnedOfKind(owner, kind string) *roaring.Bitmap {
	res := clone(ai.Owner[owner])
	if bm, ok := ai.Kind[kind]; ok {
		res.And(bm)
	} else {
		res.Clear()
	}
	return res
}

func cardinality(b *roaring.Bitmap) uint64 {
	if b == nil {
		return 0
	}
	return b.GetCardinality()
}

func clone(b *roaring.Bitmap) *roaring.Bitmap {
	if b == nil {
		return roaring.New()
	}
	c := roaring.New()
	c.Or(b) // copy
	return c
}
