package helper_util

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/openparts/registry/api/model"
)

func GetPaginationParams(c *gin.Context) (limit int, offset int, err error) {
	limit, err = strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil {
		return 0, 0, err
	}
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

// GetSortParams reads sort and order query parameters. Unknown sort fields
// fall back to creation time, the registry's default listing order.
func GetSortParams(c *gin.Context) (field model.SortField, ascending bool) {
	switch c.DefaultQuery("sort", "created") {
	case "name":
		field = model.SortName
	case "status":
		field = model.SortStatus
	default:
		field = model.SortCreated
	}
	ascending = c.DefaultQuery("order", "desc") == "asc"
	return field, ascending
}
