package table

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"smartmob-dashboard/internal/util"
)

type Kind int

const (
	Text Kind = iota
	Date
	Number
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// AllRows as a page size shows every filtered row on one page.
const AllRows = -1

const DefaultPageSize = 10

// Column describes how one field of T is searched and sorted. Text columns
// need Text, Date columns need Time, Number columns need Number (Text is
// used for search when set).
type Column[T any] struct {
	Key      string
	Kind     Kind
	Text     func(T) string
	Time     func(T) time.Time
	Number   func(T) (float64, bool)
	NoSearch bool
}

type Query struct {
	Search    string    `json:"search"`
	SortKey   string    `json:"sort"`
	Direction Direction `json:"dir"`
	Page      int       `json:"page"`
	PageSize  int       `json:"page_size"`
}

type Page[T any] struct {
	Items      []T       `json:"items"`
	Page       int       `json:"page"`
	PageSize   string    `json:"page_size"`
	TotalPages int       `json:"total_pages"`
	Total      int       `json:"total"`
	Filtered   int       `json:"filtered"`
	Search     string    `json:"search,omitempty"`
	SortKey    string    `json:"sort,omitempty"`
	Direction  Direction `json:"dir,omitempty"`
}

// Apply filters, sorts and paginates rows. rows is not modified.
func Apply[T any](rows []T, cols []Column[T], q Query) Page[T] {
	filtered := Filter(rows, cols, q.Search)
	Sort(filtered, cols, q.SortKey, q.Direction)
	items, page, pages := Paginate(filtered, q.Page, q.PageSize)

	size := strconv.Itoa(q.PageSize)
	if q.PageSize == AllRows {
		size = "all"
	}
	return Page[T]{
		Items:      items,
		Page:       page,
		PageSize:   size,
		TotalPages: pages,
		Total:      len(rows),
		Filtered:   len(filtered),
		Search:     q.Search,
		SortKey:    q.SortKey,
		Direction:  q.Direction,
	}
}

// Filter keeps rows where any searchable column contains term,
// case-insensitively. Dates match on their dd/mm/yyyy hh:mm:ss form. The
// result is always a fresh slice.
func Filter[T any](rows []T, cols []Column[T], term string) []T {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]T, 0, len(rows))
	if term == "" {
		return append(out, rows...)
	}
	for _, row := range rows {
		for _, col := range cols {
			if col.NoSearch {
				continue
			}
			if strings.Contains(strings.ToLower(col.searchText(row)), term) {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

func (col Column[T]) searchText(row T) string {
	switch {
	case col.Kind == Date && col.Time != nil:
		return util.FormatDisplay(col.Time(row))
	case col.Text != nil:
		return col.Text(row)
	case col.Kind == Number && col.Number != nil:
		if v, ok := col.Number(row); ok {
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// Sort orders rows in place by the column named key. Unknown or empty keys
// leave the order untouched. Equal keys keep their relative order.
func Sort[T any](rows []T, cols []Column[T], key string, dir Direction) {
	var col *Column[T]
	for i := range cols {
		if cols[i].Key == key {
			col = &cols[i]
			break
		}
	}
	if key == "" || col == nil {
		return
	}

	less := col.less()
	if dir == Desc {
		sort.SliceStable(rows, func(i, j int) bool { return less(rows[j], rows[i]) })
		return
	}
	sort.SliceStable(rows, func(i, j int) bool { return less(rows[i], rows[j]) })
}

func (col Column[T]) less() func(a, b T) bool {
	switch col.Kind {
	case Date:
		return func(a, b T) bool { return col.Time(a).Before(col.Time(b)) }
	case Number:
		return func(a, b T) bool {
			av, aok := col.Number(a)
			bv, bok := col.Number(b)
			if aok != bok {
				return !aok
			}
			return av < bv
		}
	default:
		return func(a, b T) bool {
			return strings.ToLower(col.Text(a)) < strings.ToLower(col.Text(b))
		}
	}
}

// Paginate returns the slice for page (1-based, clamped into range), the
// effective page and the page count. AllRows yields a single page.
func Paginate[T any](rows []T, page, size int) ([]T, int, int) {
	if size == AllRows {
		return rows, 1, 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	pages := int(math.Ceil(float64(len(rows)) / float64(size)))
	if page < 1 {
		page = 1
	}
	if pages > 0 && page > pages {
		page = pages
	}
	start := (page - 1) * size
	if start >= len(rows) {
		return []T{}, page, pages
	}
	end := start + size
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end], page, pages
}

// View holds the interactive query state of one table.
type View struct {
	q Query
}

func NewView(pageSize int) *View {
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	return &View{q: Query{Page: 1, PageSize: pageSize, Direction: Asc}}
}

func (v *View) Query() Query { return v.q }

func (v *View) SetSearch(term string) {
	v.q.Search = term
	v.q.Page = 1
}

// ToggleSort sorts by key ascending, or flips the direction when key is
// already the sort column.
func (v *View) ToggleSort(key string) {
	if v.q.SortKey == key {
		if v.q.Direction == Asc {
			v.q.Direction = Desc
		} else {
			v.q.Direction = Asc
		}
	} else {
		v.q.SortKey = key
		v.q.Direction = Asc
	}
	v.q.Page = 1
}

func (v *View) SetPageSize(size int) {
	if size == 0 {
		size = DefaultPageSize
	}
	v.q.PageSize = size
	v.q.Page = 1
}

func (v *View) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	v.q.Page = page
}
