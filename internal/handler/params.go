package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// value reads key from the query string, then from the form body.
func value(c *gin.Context, key string) (string, bool) {
	if v, ok := c.GetQuery(key); ok {
		return v, true
	}
	return c.GetPostForm(key)
}

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid %s", name)
	}
	return id, nil
}

func intValue(c *gin.Context, key string, def int) (int, error) {
	v, ok := value(c, key)
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, badRequest("invalid %s", key)
	}
	return n, nil
}

// optString returns a pointer to the form value when key was submitted.
func optString(c *gin.Context, key string) *string {
	v, ok := value(c, key)
	if !ok {
		return nil
	}
	return &v
}

func optInt(c *gin.Context, key string) (*int, error) {
	v, ok := value(c, key)
	if !ok {
		return nil, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return nil, badRequest("invalid %s", key)
	}
	return &n, nil
}

func optDecimal(c *gin.Context, key string) (*decimal.Decimal, error) {
	v, ok := value(c, key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil {
		return nil, badRequest("invalid %s", key)
	}
	return &d, nil
}

func optBool(c *gin.Context, key string) (*bool, error) {
	v, ok := value(c, key)
	if !ok {
		return nil, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return nil, badRequest("invalid %s", key)
	}
	return &b, nil
}

// idList parses category_ids given as repeated fields or a comma-separated
// list. It returns nil when the field is absent.
func idList(c *gin.Context, key string) ([]int64, error) {
	raw, ok := c.GetQueryArray(key)
	if !ok {
		raw, ok = c.GetPostFormArray(key)
	}
	if !ok {
		return nil, nil
	}
	ids := []int64{}
	for _, field := range raw {
		for part := range strings.SplitSeq(field, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil || id <= 0 {
				return nil, badRequest("invalid %s", key)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
