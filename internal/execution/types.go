package execution

// Outcome 表示单个账户执行的最终状态。
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	// OutcomeSkipped 表示无事可做(余额为零、无匹配挂单)，不计为失败。
	OutcomeSkipped Outcome = "skipped"
)

// OrderResult 为单个账户一次操作的结果。
type OrderResult struct {
	Account string
	Outcome Outcome
	OrderID string
	Reason  string
}

// Success 构造成功结果。
func Success(account, orderID string) OrderResult {
	return OrderResult{Account: account, Outcome: OutcomeSuccess, OrderID: orderID}
}

// Failure 构造失败结果。
func Failure(account string, err error) OrderResult {
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	return OrderResult{Account: account, Outcome: OutcomeFailure, Reason: reason}
}

// Skipped 构造跳过结果。
func Skipped(account, reason string) OrderResult {
	return OrderResult{Account: account, Outcome: OutcomeSkipped, Reason: reason}
}
