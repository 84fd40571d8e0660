package api

import (
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"makelaardij/server/internal/models"
)

// queryInt64 parses an optional numeric query parameter. Anything that does not
// parse is treated as absent, and so is zero.
func queryInt64(c *gin.Context, key string) *int64 {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || !models.FloatFitsInt64(f) {
			return nil
		}
		n = int64(f)
	}
	if n == 0 {
		return nil
	}
	return &n
}

func queryInt(c *gin.Context, key string) *int {
	n := queryInt64(c, key)
	if n == nil || *n > math.MaxInt32 || *n < math.MinInt32 {
		return nil
	}
	i := int(*n)
	return &i
}

// paramID parses a numeric path parameter
func paramID(c *gin.Context, key string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(key), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// bearer returns the token of an "Authorization: Bearer" header
func bearer(c *gin.Context) string {
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(h) < len("Bearer ") || !strings.EqualFold(h[:len("Bearer ")], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(h[len("Bearer "):])
}
