package exchange

import (
	"context"
	"strconv"
	"strings"

	ccxt "github.com/ccxt/ccxt/go/v4"
	"go.uber.org/zap"

	"multi-trader/internal/config"
)

// Client 封装单个账户的 Bitget 现货接口。
type Client struct {
	accountName string
	logger      *zap.Logger
	exchange    *ccxt.Bitget
}

// NewClient 根据账户凭证构造 Bitget 现货客户端。
func NewClient(cfg config.AccountConfig, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	userConfig := map[string]interface{}{
		"enableRateLimit": true,
		"options": map[string]interface{}{
			"defaultType": "spot",
			// Bitget 市价买单以计价币种金额计量，无须换算为基础币数量
			"createMarketBuyOrderRequiresPrice": false,
		},
	}

	if cfg.APIKey != "" {
		userConfig["apiKey"] = cfg.APIKey
	}
	if cfg.APISecret != "" {
		userConfig["secret"] = cfg.APISecret
	}
	if cfg.Passphrase != "" {
		userConfig["password"] = cfg.Passphrase
	}

	ex := ccxt.NewBitget(userConfig)

	return &Client{
		accountName: cfg.Name,
		logger:      logger.With(zap.String("account", cfg.Name)),
		exchange:    ex,
	}, nil
}

// AccountName 返回客户端所属账户名。
func (c *Client) AccountName() string {
	return c.accountName
}

// Probe 通过一次余额查询验证凭证与连通性。
func (c *Client) Probe(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.exchange.FetchBalance(); err != nil {
		return normalizeError(err)
	}
	return nil
}

// GetBalance 查询指定币种的可用余额。
func (c *Client) GetBalance(ctx context.Context, coin string) (Balance, error) {
	if err := ctx.Err(); err != nil {
		return Balance{}, err
	}

	balances, err := c.exchange.FetchBalance()
	if err != nil {
		return Balance{}, normalizeError(err)
	}

	var available float64
	if balances.Free != nil {
		if v, ok := balances.Free[coin]; ok && v != nil {
			available = *v
		}
	}

	return Balance{Coin: coin, Available: available}, nil
}

// CurrentPrice 查询交易对最新成交价，行情缺失时返回 ErrPriceUnavailable。
func (c *Client) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	ticker, err := c.exchange.FetchTicker(symbol)
	if err != nil {
		return 0, normalizeError(err)
	}

	price := derefFloat(ticker.Last)
	if price <= 0 {
		price = derefFloat(ticker.Close)
	}
	if price <= 0 {
		return 0, ErrPriceUnavailable
	}

	return price, nil
}

// PlaceOrder 提交委托并返回回执。数量字符串在此解析，保持上层的十进制格式约束。
func (c *Client) PlaceOrder(ctx context.Context, req OrderRequest) (OrderAck, error) {
	if err := ctx.Err(); err != nil {
		return OrderAck{}, err
	}

	amount, err := strconv.ParseFloat(req.Quantity, 64)
	if err != nil {
		return OrderAck{}, &APIError{Code: "BadRequest", Message: "非法的数量字符串: " + req.Quantity}
	}

	var order ccxt.Order
	switch req.Type {
	case OrderTypeMarket:
		var opts []ccxt.CreateMarketOrderOptions
		if req.ClientOrderID != "" {
			opts = append(opts, ccxt.WithCreateMarketOrderParams(map[string]interface{}{
				"clientOrderId": req.ClientOrderID,
			}))
		}
		order, err = c.exchange.CreateMarketOrder(req.Symbol, string(req.Side), amount, opts...)
	case OrderTypeLimit:
		if req.Price <= 0 {
			return OrderAck{}, &APIError{Code: "BadRequest", Message: "限价单必须携带有效价格"}
		}
		var opts []ccxt.CreateLimitOrderOptions
		if req.ClientOrderID != "" {
			opts = append(opts, ccxt.WithCreateLimitOrderParams(map[string]interface{}{
				"clientOrderId": req.ClientOrderID,
			}))
		}
		order, err = c.exchange.CreateLimitOrder(req.Symbol, string(req.Side), amount, req.Price, opts...)
	default:
		return OrderAck{}, &APIError{Code: "BadRequest", Message: "不支持的委托类型: " + string(req.Type)}
	}

	if err != nil {
		return OrderAck{}, normalizeError(err)
	}

	ack := OrderAck{
		OrderID:       derefString(order.Id),
		ClientOrderID: derefString(order.ClientOrderId),
	}
	if ack.ClientOrderID == "" {
		ack.ClientOrderID = req.ClientOrderID
	}

	c.logger.Debug("委托已提交",
		zap.String("symbol", req.Symbol),
		zap.String("side", string(req.Side)),
		zap.String("type", string(req.Type)),
		zap.String("quantity", req.Quantity),
		zap.String("order_id", ack.OrderID),
	)

	return ack, nil
}

// OpenOrders 列出指定交易对的全部挂单。
func (c *Client) OpenOrders(ctx context.Context, symbol string) ([]OpenOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := c.exchange.FetchOpenOrders(ccxt.WithFetchOpenOrdersSymbol(symbol))
	if err != nil {
		return nil, normalizeError(err)
	}

	orders := make([]OpenOrder, 0, len(raw))
	for _, item := range raw {
		orders = append(orders, OpenOrder{
			ID:       derefString(item.Id),
			Side:     Side(strings.ToLower(derefString(item.Side))),
			Type:     OrderType(strings.ToLower(derefString(item.Type))),
			Price:    derefFloat(item.Price),
			Quantity: derefFloat(item.Amount),
		})
	}

	return orders, nil
}

// CancelOrder 撤销指定挂单。
func (c *Client) CancelOrder(ctx context.Context, symbol, orderID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := c.exchange.CancelOrder(orderID, ccxt.WithCancelOrderSymbol(symbol)); err != nil {
		return normalizeError(err)
	}

	return nil
}

func derefFloat(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
