package exchange

import (
	"context"
	"errors"
	"fmt"
	"strings"

	ccxt "github.com/ccxt/ccxt/go/v4"
)

var (
	// ErrPriceUnavailable 表示行情接口未返回有效的最新价。
	ErrPriceUnavailable = errors.New("exchange: 无法获取当前价格")
)

// APIError 表示交易所返回的业务错误。
// Code 来自 ccxt 的错误分类，替代原始接口中散落的状态码字符串比较。
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("exchange: API错误 [%s] %s", e.Code, e.Message)
}

// normalizeError 将底层错误统一为 APIError，上下文取消原样透传。
func normalizeError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var ccxtErr *ccxt.Error
	if errors.As(err, &ccxtErr) {
		message := strings.TrimSpace(ccxtErr.Message)
		if message == "" {
			message = "unknown exchange error"
		}
		return &APIError{
			Code:    string(ccxtErr.Type),
			Message: message,
		}
	}

	return err
}
