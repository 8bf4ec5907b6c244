package exchange

// Side 表示委托方向。
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// OrderType 表示委托类型。
type OrderType string

const (
	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"
)

// Balance 描述单一币种的可用余额。每次查询都取最新值，不做缓存。
type Balance struct {
	Coin      string
	Available float64
}

// OrderRequest 抽象一笔待提交的委托。
// Quantity 以十进制字符串传递，由上层保证不含科学计数法；
// 市价买单的数量以计价币种计。
type OrderRequest struct {
	Symbol        string
	Side          Side
	Type          OrderType
	Quantity      string
	Price         float64
	ClientOrderID string
}

// OrderAck 为下单成功后的回执。
type OrderAck struct {
	OrderID       string
	ClientOrderID string
}

// OpenOrder 描述一笔未成交的挂单。
type OpenOrder struct {
	ID       string
	Side     Side
	Type     OrderType
	Price    float64
	Quantity float64
}
