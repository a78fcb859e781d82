package table

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// ParsePageSize reads "all" or a positive integer; "" means DefaultPageSize.
func ParsePageSize(s string) (int, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "":
		return DefaultPageSize, nil
	case "all", "tutti":
		return AllRows, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("pageSize must be a positive integer or 'all'")
	}
	return n, nil
}

// ParseQuery reads q, sort, dir, page and pageSize from the request.
func ParseQuery(c *gin.Context) (Query, error) {
	size, err := ParsePageSize(c.Query("pageSize"))
	if err != nil {
		return Query{}, err
	}

	page := 1
	if raw := strings.TrimSpace(c.Query("page")); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			return Query{}, fmt.Errorf("page must be a positive integer")
		}
	}

	dir := Asc
	switch strings.ToLower(strings.TrimSpace(c.Query("dir"))) {
	case "", "asc":
	case "desc":
		dir = Desc
	default:
		return Query{}, fmt.Errorf("dir must be asc or desc")
	}

	return Query{
		Search:    c.Query("q"),
		SortKey:   strings.TrimSpace(c.Query("sort")),
		Direction: dir,
		Page:      page,
		PageSize:  size,
	}, nil
}
