package params

// Action 表示一次批量操作的类型。
type Action string

const (
	ActionBuyMarket        Action = "buy_market"
	ActionBuyLimit         Action = "buy_limit"
	ActionSellMarket       Action = "sell_market"
	ActionSellLimit        Action = "sell_limit"
	ActionCancelBuyLimits  Action = "cancel_buy_limits"
	ActionCancelSellLimits Action = "cancel_sell_limits"
)

// Valid 判断操作类型是否受支持。
func (a Action) Valid() bool {
	switch a {
	case ActionBuyMarket, ActionBuyLimit, ActionSellMarket, ActionSellLimit,
		ActionCancelBuyLimits, ActionCancelSellLimits:
		return true
	default:
		return false
	}
}

// IsCancel 判断是否为撤单操作。撤单不需要解析任何交易参数。
func (a Action) IsCancel() bool {
	return a == ActionCancelBuyLimits || a == ActionCancelSellLimits
}

// NeedsBuyAmount 判断操作是否依赖买入金额。
func (a Action) NeedsBuyAmount() bool {
	return a == ActionBuyMarket || a == ActionBuyLimit
}

// NeedsSellPercentage 判断操作是否依赖卖出比例。
func (a Action) NeedsSellPercentage() bool {
	return a == ActionSellMarket || a == ActionSellLimit
}

// NeedsPrice 判断操作是否依赖限价。
func (a Action) NeedsPrice() bool {
	return a == ActionBuyLimit || a == ActionSellLimit
}
