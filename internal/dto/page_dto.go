package dto

const MaxPageSize = 100

// PageQuery is the page/size pair accepted by every collection endpoint.
// Page is zero-based.
type PageQuery struct {
	Page int `form:"page"`
	Size int `form:"size"`
}

// Normalize clamps the query to valid bounds, using def when size is unset.
func (q PageQuery) Normalize(def int) PageQuery {
	if q.Page < 0 {
		q.Page = 0
	}
	if q.Size <= 0 {
		q.Size = def
	}
	if q.Size > MaxPageSize {
		q.Size = MaxPageSize
	}
	return q
}

func (q PageQuery) Offset() int { return q.Page * q.Size }

// Page is the collection envelope.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
}

func NewPage[T any](content []T, total int64, q PageQuery) Page[T] {
	if content == nil {
		content = []T{}
	}
	pages := 0
	if q.Size > 0 {
		pages = int((total + int64(q.Size) - 1) / int64(q.Size))
	}
	return Page[T]{Content: content, TotalElements: total, TotalPages: pages, Page: q.Page, Size: q.Size}
}

// MapPage converts a page of one type into another.
func MapPage[S, T any](p Page[S], fn func(S) T) Page[T] {
	out := make([]T, len(p.Content))
	for i, v := range p.Content {
		out[i] = fn(v)
	}
	return Page[T]{Content: out, TotalElements: p.TotalElements, TotalPages: p.TotalPages, Page: p.Page, Size: p.Size}
}

// SlicePage cuts one page out of a fully loaded collection. It serves the
// child lists of an order or invoice, which are loaded whole anyway.
func SlicePage[T any](all []T, q PageQuery) Page[T] {
	start := min(q.Offset(), len(all))
	end := min(start+q.Size, len(all))
	return NewPage(all[start:end], int64(len(all)), q)
}
