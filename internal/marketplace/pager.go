package marketplace

import "slices"

// DefaultPageSize is the number of items shown per page.
const DefaultPageSize = 5

// Page is one window over the catalog.
type Page struct {
	Index      int
	Size       int
	Items      []CatalogItem
	Total      int
	TotalPages int
}

// Empty reports whether the page has nothing to show.
func (p Page) Empty() bool { return len(p.Items) == 0 }

// HasPrev reports whether an earlier page exists.
func (p Page) HasPrev() bool { return p.Index > 0 }

// HasNext reports whether items follow this page.
func (p Page) HasNext() bool { return (p.Index+1)*p.Size < p.Total }

// TotalPages returns ceil(total/size); 0 for an empty collection.
func TotalPages(total, size int) int {
	if total <= 0 {
		return 0
	}
	if size < 1 {
		size = DefaultPageSize
	}
	return (total + size - 1) / size
}

// ClampPage moves index into [0, max(pages-1, 0)].
func ClampPage(index, pages int) int {
	if index >= pages {
		index = pages - 1
	}
	return max(index, 0)
}

// Render slices items into the page at index. The index is clamped so
// every call yields a valid page; the page count comes from len(items).
func Render(items []CatalogItem, index, size int) Page {
	if size < 1 {
		size = DefaultPageSize
	}
	pages := TotalPages(len(items), size)
	index = ClampPage(index, pages)

	lo := min(index*size, len(items))
	hi := min(lo+size, len(items))
	return Page{
		Index:      index,
		Size:       size,
		Items:      slices.Clip(items[lo:hi]),
		Total:      len(items),
		TotalPages: pages,
	}
}

// Entry is a rendered item with its selection mark.
type Entry struct {
	Item     CatalogItem
	Selected bool
}

// UserPage is a page annotated for one user.
type UserPage struct {
	Page
	Entries []Entry
}

// RenderForUser renders the page and marks items present in sel. Unsaved
// items are never marked.
func RenderForUser(items []CatalogItem, sel Selection, index, size int) UserPage {
	p := Render(items, index, size)
	entries := make([]Entry, len(p.Items))
	for i, it := range p.Items {
		entries[i] = Entry{Item: it, Selected: it.Saved() && sel.Contains(it.Name)}
	}
	return UserPage{Page: p, Entries: entries}
}

// PageOf returns the page holding the item called name, clamped into the
// current page range. A missing item maps to page 0.
func PageOf(items []CatalogItem, name string, size int) int {
	if size < 1 {
		size = DefaultPageSize
	}
	idx := slices.IndexFunc(items, func(it CatalogItem) bool { return it.Name == name })
	if idx < 0 {
		return 0
	}
	return ClampPage(idx/size, TotalPages(len(items), size))
}
