package util

import (
	"math"
	"strconv"
)

// MustParseUint 将字符串转换为无符号整数，解析失败时返回 0
func MustParseUint(s string) uint {
	id, _ := strconv.ParseUint(s, 10, 32)
	return uint(id)
}

// ParseIntDefault 解析失败或为空时返回默认值
func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// Round 四舍五入，.5 向正无穷方向进位
func Round(x float64) int {
	return int(math.Floor(x + 0.5))
}

// Round2 保留两位小数
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}
