package util

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// QueryInt 读取整数查询参数，缺失或解析失败时返回默认值
func QueryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}

// Pagination 读取 page/limit 并限制在合法范围
func Pagination(c *gin.Context) (page, limit int) {
	page = QueryInt(c, "page", DefaultPage)
	limit = QueryInt(c, "limit", DefaultLimit)
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}
