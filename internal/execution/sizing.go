package execution

// SellQuantity 根据可用余额与卖出比例计算卖出数量，结果不会超过可用余额。
func SellQuantity(available, percentage float64) float64 {
	if available <= 0 {
		return 0
	}
	quantity := available * (percentage / 100)
	if quantity > available {
		quantity = available
	}
	return quantity
}

// LimitBuyQuantity 把计价币金额按限价换算为基础币数量。
func LimitBuyQuantity(amount, price float64) float64 {
	if price <= 0 {
		return 0
	}
	return amount / price
}

// EstimatedValue 估算委托的计价币价值，仅用于操作者可见的展示。
func EstimatedValue(quantity, price float64) float64 {
	return quantity * price
}
