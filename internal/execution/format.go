package execution

import (
	"strconv"
	"strings"
)

// FormatQuantity 将数量格式化为交易所接受的定点十进制字符串，
// 最多保留7位小数，去掉尾部的零和小数点。任何量级下都不会出现
// 科学计数法(如 1.17e-05)，这类表示会被交易所接口拒绝。
func FormatQuantity(q float64) string {
	s := strconv.FormatFloat(q, 'f', 7, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}

// NormalizeQuantity 将数字字符串重排为定点格式，非数字输入原样返回，
// 由下游调用方暴露错误。
func NormalizeQuantity(s string) string {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return s
	}
	return FormatQuantity(f)
}

// QuantityArg 生成提交给下单接口的数量参数。
// 大于等于1的数量直接取整发送，整数数量完全绕开小数格式问题；
// 小于1的数量走定点格式化。
func QuantityArg(q float64) string {
	if q >= 1 {
		return strconv.FormatInt(int64(q), 10)
	}
	return FormatQuantity(q)
}
