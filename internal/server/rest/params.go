package rest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/recipebook/internal/common"
	"github.com/gin-gonic/gin"
)

// pathID parses the :id route parameter. Anything but a positive integer
// is reported as not found, as no such resource can exist.
func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, common.ErrorNotFound
	}
	return id, nil
}

// queryIDs parses a comma separated id list such as "1,2,3". Empty items
// are skipped.
func queryIDs(c *gin.Context, name string) ([]int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, common.NewValidationError(name, fmt.Sprintf("%q is not a valid id.", part))
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// queryFlag parses an integer flag such as assigned_only=1; any non-zero
// value is true.
func queryFlag(c *gin.Context, name string) (bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return false, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return false, common.NewValidationError(name, "A valid integer is required.")
	}
	return n != 0, nil
}
