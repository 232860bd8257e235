package listing

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"gorm.io/gorm/clause"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// sortColumns is the allow-list of sortable fields and the columns they map to.
var sortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"title":     "title",
	"views":     "views",
}

// RawPage holds the paging query parameters as received.
type RawPage struct {
	Page      string
	Limit     string
	SortBy    string
	SortOrder string
}

// Page is a normalized page request.
type Page struct {
	Page      int
	Limit     int
	Skip      int
	SortBy    string
	SortOrder string
}

// ResolvePage normalizes raw paging input. Anything unparseable or below range
// falls back to the defaults: page 1, limit 10, createdAt desc. Huge page numbers
// are clamped and still land past the last page.
func ResolvePage(raw RawPage) Page {
	page := positiveInt(raw.Page, 1)
	limit := positiveInt(raw.Limit, DefaultLimit)
	if limit > MaxLimit {
		limit = MaxLimit
	}
	// keeps (page-1)*limit from overflowing into a negative offset
	if maxPage := math.MaxInt / limit; page > maxPage {
		page = maxPage
	}

	sortBy := raw.SortBy
	if _, ok := sortColumns[sortBy]; !ok {
		sortBy = "createdAt"
	}

	sortOrder := strings.ToLower(raw.SortOrder)
	if sortOrder != "asc" {
		sortOrder = "desc"
	}

	return Page{
		Page:      page,
		Limit:     limit,
		Skip:      (page - 1) * limit,
		SortBy:    sortBy,
		SortOrder: sortOrder,
	}
}

// OrderBy returns the ORDER BY column for the page. The column always comes from
// the allow-list, never from raw input.
func (p Page) OrderBy() clause.OrderByColumn {
	col, ok := sortColumns[p.SortBy]
	if !ok {
		col = sortColumns["createdAt"]
	}
	return clause.OrderByColumn{
		Column: clause.Column{Table: "posts", Name: col},
		Desc:   p.SortOrder != "asc",
	}
}

// TotalPages is ceil(count / limit).
func TotalPages(count int64, limit int) int {
	if limit <= 0 || count <= 0 {
		return 0
	}
	return int((count + int64(limit) - 1) / int64(limit))
}

func positiveInt(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if errors.Is(err, strconv.ErrRange) && n > 0 {
		return math.MaxInt
	}
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
