package kanban

// Bucket is the ordered run of items rendered inside one column.
type Bucket struct {
	Column Column
	Items  []Item
}

// Buckets maps column ids to their items, in column order.
type Buckets struct {
	order    []Bucket
	index    map[string]int
	fallback []ID
}

// Bucketize groups items by status. Every column gets a bucket (possibly
// empty) and items keep their relative order inside a bucket. Items whose
// status matches no column land in the first column and are listed by
// Fallback. With no columns the result is empty.
func Bucketize(items []Item, columns []Column) Buckets {
	out := Buckets{
		order: make([]Bucket, 0, len(columns)),
		index: make(map[string]int, len(columns)),
	}
	for _, c := range columns {
		if _, dup := out.index[c.ID]; dup {
			continue
		}
		out.index[c.ID] = len(out.order)
		out.order = append(out.order, Bucket{Column: c, Items: []Item{}})
	}
	if len(out.order) == 0 {
		return out
	}
	for _, it := range items {
		idx, ok := out.index[it.Status]
		if !ok {
			idx = 0
			out.fallback = append(out.fallback, it.ID)
		}
		out.order[idx].Items = append(out.order[idx].Items, it)
	}
	return out
}

// Len returns the number of buckets.
func (b Buckets) Len() int {
	return len(b.order)
}

// At returns the bucket at column position i.
func (b Buckets) At(i int) Bucket {
	return b.order[i]
}

// All returns the buckets in column order.
func (b Buckets) All() []Bucket {
	return b.order
}

// Items returns the items for one column id.
func (b Buckets) Items(columnID string) ([]Item, bool) {
	idx, ok := b.index[columnID]
	if !ok {
		return nil, false
	}
	return b.order[idx].Items, true
}

// Count returns the number of items across all buckets.
func (b Buckets) Count() int {
	n := 0
	for _, bucket := range b.order {
		n += len(bucket.Items)
	}
	return n
}

// Fallback lists the ids whose status matched no column.
func (b Buckets) Fallback() []ID {
	return b.fallback
}

// Locate returns the column position and row of an item.
func (b Buckets) Locate(id ID) (col, row int, ok bool) {
	for ci, bucket := range b.order {
		for ri, it := range bucket.Items {
			if it.ID == id {
				return ci, ri, true
			}
		}
	}
	return -1, -1, false
}
