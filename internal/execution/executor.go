package execution

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"multi-trader/internal/config"
	"multi-trader/internal/exchange"
	"multi-trader/internal/params"
)

// Client 是执行器依赖的账户交易能力，由 exchange.Client 实现。
type Client interface {
	GetBalance(ctx context.Context, coin string) (exchange.Balance, error)
	CurrentPrice(ctx context.Context, symbol string) (float64, error)
	PlaceOrder(ctx context.Context, req exchange.OrderRequest) (exchange.OrderAck, error)
	OpenOrders(ctx context.Context, symbol string) ([]exchange.OpenOrder, error)
	CancelOrder(ctx context.Context, symbol, orderID string) error
}

// Executor 将操作类型映射为单个账户上的下单或撤单流程。
// 每个(账户,操作)对在一步内终结，任何错误都被折叠为该账户的失败结果，
// 不会中断批次内的其他账户。
type Executor struct {
	trading config.TradingConfig
	logger  *zap.Logger
	now     func() time.Time
}

// NewExecutor 创建执行器。
func NewExecutor(trading config.TradingConfig, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		trading: trading,
		logger:  logger,
		now:     time.Now,
	}
}

// Execute 在单个账户上执行指定操作并返回结果。
func (e *Executor) Execute(ctx context.Context, account string, client Client, action params.Action, res params.Resolved) OrderResult {
	switch action {
	case params.ActionBuyMarket:
		return e.buyMarket(ctx, account, client, res)
	case params.ActionBuyLimit:
		return e.buyLimit(ctx, account, client, res)
	case params.ActionSellMarket:
		return e.sellMarket(ctx, account, client, res)
	case params.ActionSellLimit:
		return e.sellLimit(ctx, account, client, res)
	case params.ActionCancelBuyLimits:
		return e.cancelLimits(ctx, account, client, exchange.SideBuy)
	case params.ActionCancelSellLimits:
		return e.cancelLimits(ctx, account, client, exchange.SideSell)
	default:
		return Failure(account, fmt.Errorf("execution: 未知操作 %q", action))
	}
}

// buyMarket 提交市价买单。数量以计价币金额计，由交易所按市价换算，
// 不做客户端侧的余额检查。clientOrderId 取提交时刻的毫秒时间戳，
// 便于外部对账，核心不用它去重。
func (e *Executor) buyMarket(ctx context.Context, account string, client Client, res params.Resolved) OrderResult {
	if res.BuyAmount <= 0 {
		return Failure(account, fmt.Errorf("execution: 无效的买入金额 %v", res.BuyAmount))
	}

	e.logger.Info("提交市价买单",
		zap.String("account", account),
		zap.String("symbol", e.trading.Symbol),
		zap.Float64("amount", res.BuyAmount),
		zap.String("quote", e.trading.Quote),
	)

	ack, err := client.PlaceOrder(ctx, exchange.OrderRequest{
		Symbol:        e.trading.Symbol,
		Side:          exchange.SideBuy,
		Type:          exchange.OrderTypeMarket,
		Quantity:      QuantityArg(res.BuyAmount),
		ClientOrderID: strconv.FormatInt(e.now().UnixMilli(), 10),
	})
	if err != nil {
		return Failure(account, fmt.Errorf("execution: 市价买单失败: %w", err))
	}

	return Success(account, ack.OrderID)
}

// buyLimit 提交限价买单，基础币数量 = 金额 / 限价。
func (e *Executor) buyLimit(ctx context.Context, account string, client Client, res params.Resolved) OrderResult {
	if res.BuyAmount <= 0 || res.Price <= 0 {
		return Failure(account, fmt.Errorf("execution: 无效的限价买单参数 amount=%v price=%v", res.BuyAmount, res.Price))
	}

	baseQuantity := LimitBuyQuantity(res.BuyAmount, res.Price)

	e.logger.Info("提交限价买单",
		zap.String("account", account),
		zap.String("symbol", e.trading.Symbol),
		zap.Float64("amount", res.BuyAmount),
		zap.String("price", FormatQuantity(res.Price)),
		zap.String("estimated_"+e.trading.Coin, FormatQuantity(baseQuantity)),
	)

	ack, err := client.PlaceOrder(ctx, exchange.OrderRequest{
		Symbol:   e.trading.Symbol,
		Side:     exchange.SideBuy,
		Type:     exchange.OrderTypeLimit,
		Quantity: QuantityArg(baseQuantity),
		Price:    res.Price,
	})
	if err != nil {
		return Failure(account, fmt.Errorf("execution: 限价买单失败: %w", err))
	}

	return Success(account, ack.OrderID)
}

// sellMarket 提交市价卖单。余额为零时跳过而非报错；
// 行情查询失败只影响预估价值的展示，委托仍按市价提交。
func (e *Executor) sellMarket(ctx context.Context, account string, client Client, res params.Resolved) OrderResult {
	if res.SellPercentage <= 0 || res.SellPercentage > 100 {
		return Failure(account, fmt.Errorf("execution: 无效的卖出比例 %v", res.SellPercentage))
	}

	balance, err := client.GetBalance(ctx, e.trading.Coin)
	if err != nil {
		return Failure(account, fmt.Errorf("execution: 获取 %s 余额失败: %w", e.trading.Coin, err))
	}
	if balance.Available <= 0 {
		return Skipped(account, fmt.Sprintf("无可用 %s 余额", e.trading.Coin))
	}

	displayPrice, err := client.CurrentPrice(ctx, e.trading.Symbol)
	if err != nil {
		e.logger.Warn("行情查询失败，继续提交市价卖单",
			zap.String("account", account),
			zap.Error(err),
		)
		displayPrice = 0
	}

	quantity := SellQuantity(balance.Available, res.SellPercentage)

	fields := []zap.Field{
		zap.String("account", account),
		zap.String("symbol", e.trading.Symbol),
		zap.String("quantity", FormatQuantity(quantity)),
		zap.Float64("percentage", res.SellPercentage),
		zap.String("available", FormatQuantity(balance.Available)),
	}
	if displayPrice > 0 {
		fields = append(fields, zap.String("estimated_"+e.trading.Quote, FormatQuantity(EstimatedValue(quantity, displayPrice))))
	}
	e.logger.Info("提交市价卖单", fields...)

	ack, err := client.PlaceOrder(ctx, exchange.OrderRequest{
		Symbol:   e.trading.Symbol,
		Side:     exchange.SideSell,
		Type:     exchange.OrderTypeMarket,
		Quantity: QuantityArg(quantity),
	})
	if err != nil {
		return Failure(account, fmt.Errorf("execution: 市价卖单失败: %w", err))
	}

	return Success(account, ack.OrderID)
}

// sellLimit 提交限价卖单。
func (e *Executor) sellLimit(ctx context.Context, account string, client Client, res params.Resolved) OrderResult {
	if res.SellPercentage <= 0 || res.SellPercentage > 100 || res.Price <= 0 {
		return Failure(account, fmt.Errorf("execution: 无效的限价卖单参数 percentage=%v price=%v", res.SellPercentage, res.Price))
	}

	balance, err := client.GetBalance(ctx, e.trading.Coin)
	if err != nil {
		return Failure(account, fmt.Errorf("execution: 获取 %s 余额失败: %w", e.trading.Coin, err))
	}
	if balance.Available <= 0 {
		return Skipped(account, fmt.Sprintf("无可用 %s 余额", e.trading.Coin))
	}

	quantity := SellQuantity(balance.Available, res.SellPercentage)

	e.logger.Info("提交限价卖单",
		zap.String("account", account),
		zap.String("symbol", e.trading.Symbol),
		zap.String("quantity", FormatQuantity(quantity)),
		zap.Float64("percentage", res.SellPercentage),
		zap.String("price", FormatQuantity(res.Price)),
		zap.String("estimated_"+e.trading.Quote, FormatQuantity(EstimatedValue(quantity, res.Price))),
	)

	ack, err := client.PlaceOrder(ctx, exchange.OrderRequest{
		Symbol:   e.trading.Symbol,
		Side:     exchange.SideSell,
		Type:     exchange.OrderTypeLimit,
		Quantity: QuantityArg(quantity),
		Price:    res.Price,
	})
	if err != nil {
		return Failure(account, fmt.Errorf("execution: 限价卖单失败: %w", err))
	}

	return Success(account, ack.OrderID)
}

// cancelLimits 撤销指定方向的全部限价挂单。单笔撤销失败不影响其余挂单，
// 至少一笔成功即视为成功；无匹配挂单视为跳过；仅当挂单列表本身
// 获取失败时才判定为失败。
func (e *Executor) cancelLimits(ctx context.Context, account string, client Client, side exchange.Side) OrderResult {
	orders, err := client.OpenOrders(ctx, e.trading.Symbol)
	if err != nil {
		return Failure(account, fmt.Errorf("execution: 获取挂单列表失败: %w", err))
	}

	matching := make([]exchange.OpenOrder, 0, len(orders))
	for _, order := range orders {
		if order.Side == side && order.Type == exchange.OrderTypeLimit {
			matching = append(matching, order)
		}
	}

	if len(matching) == 0 {
		return Skipped(account, fmt.Sprintf("没有 %s 方向的限价挂单", side))
	}

	e.logger.Info("开始撤销限价挂单",
		zap.String("account", account),
		zap.String("side", string(side)),
		zap.Int("count", len(matching)),
	)

	var cancelErr error
	cancelled := 0
	for _, order := range matching {
		if err := client.CancelOrder(ctx, e.trading.Symbol, order.ID); err != nil {
			cancelErr = multierr.Append(cancelErr, fmt.Errorf("撤销 %s 失败: %w", order.ID, err))
			e.logger.Warn("撤销挂单失败",
				zap.String("account", account),
				zap.String("order_id", order.ID),
				zap.Error(err),
			)
			continue
		}
		cancelled++
		e.logger.Info("挂单已撤销",
			zap.String("account", account),
			zap.String("order_id", order.ID),
			zap.String("price", FormatQuantity(order.Price)),
			zap.String("quantity", FormatQuantity(order.Quantity)),
		)
	}

	if cancelled == 0 {
		return Failure(account, fmt.Errorf("execution: %d 笔挂单全部撤销失败: %w", len(matching), cancelErr))
	}

	e.logger.Info("撤单完成",
		zap.String("account", account),
		zap.Int("cancelled", cancelled),
		zap.Int("failed", len(matching)-cancelled),
	)

	return Success(account, "")
}
