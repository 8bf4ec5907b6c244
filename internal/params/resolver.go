package params

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"multi-trader/internal/config"
)

var (
	// ErrUnknownAction 表示不受支持的操作类型。
	ErrUnknownAction = errors.New("params: 未知的操作类型")
	// ErrBuyAmountInvalid 表示买入金额越界。
	ErrBuyAmountInvalid = errors.New("params: 买入金额必须大于0")
	// ErrSellPercentageInvalid 表示卖出比例越界。
	ErrSellPercentageInvalid = errors.New("params: 卖出比例必须位于(0,100]")
	// ErrPriceInvalid 表示限价越界。
	ErrPriceInvalid = errors.New("params: 限价必须大于0")
	// ErrInputNotNumeric 表示交互输入无法解析为数值。
	ErrInputNotNumeric = errors.New("params: 无法解析输入的数值")
	// ErrPriceUndetermined 表示限价操作找不到任何可用的价格来源。
	ErrPriceUndetermined = errors.New("params: 无法获取市场价格作为限价默认值")
)

// Resolved 为一次批量操作解析出的交易参数。
// 在批次开始前解析一次，批次内所有账户共享同一份只读值。
type Resolved struct {
	BuyAmount      float64
	SellPercentage float64
	Price          float64
}

// PromptFunc 请求操作者输入一行文本，空输入返回 defaultValue。
type PromptFunc func(label, defaultValue string) (string, error)

// PriceQuoter 提供当前市场价查询，由某个活跃账户的客户端充当。
type PriceQuoter interface {
	CurrentPrice(ctx context.Context, symbol string) (float64, error)
}

// source 是参数的单一来源，按优先级依次尝试，首个命中的生效。
type source func(ctx context.Context) (float64, bool, error)

// Resolver 按固定优先级解析交易参数：本次调用已给定的值、静态配置、交互输入。
type Resolver struct {
	trading config.TradingConfig
	prompt  PromptFunc
	logger  *zap.Logger
}

// NewResolver 创建参数解析器。prompt 为 nil 时跳过交互环节。
func NewResolver(trading config.TradingConfig, prompt PromptFunc, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		trading: trading,
		prompt:  prompt,
		logger:  logger,
	}
}

// Resolve 为指定操作解析全部所需参数。任何校验失败都会在接触账户之前中止整个批次。
func (r *Resolver) Resolve(ctx context.Context, action Action, seed *Resolved, quote PriceQuoter) (Resolved, error) {
	if !action.Valid() {
		return Resolved{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	var out Resolved
	if action.IsCancel() {
		return out, nil
	}

	if action.NeedsBuyAmount() {
		value, err := resolveField(ctx,
			seedSource(seed, func(s Resolved) float64 { return s.BuyAmount }),
			configSource(r.trading.BuyAmount),
			r.amountPrompt(),
		)
		if err != nil {
			return Resolved{}, err
		}
		if value <= 0 {
			return Resolved{}, fmt.Errorf("%w: %v", ErrBuyAmountInvalid, value)
		}
		out.BuyAmount = value
	}

	if action.NeedsSellPercentage() {
		value, err := resolveField(ctx,
			seedSource(seed, func(s Resolved) float64 { return s.SellPercentage }),
			configSource(r.trading.SellPercentage),
			r.percentagePrompt(),
		)
		if err != nil {
			return Resolved{}, err
		}
		if value <= 0 || value > 100 {
			return Resolved{}, fmt.Errorf("%w: %v", ErrSellPercentageInvalid, value)
		}
		out.SellPercentage = value
	}

	if action.NeedsPrice() {
		value, err := r.resolvePrice(ctx, seed, quote)
		if err != nil {
			return Resolved{}, err
		}
		if value <= 0 {
			return Resolved{}, fmt.Errorf("%w: %v", ErrPriceInvalid, value)
		}
		out.Price = value
	}

	r.logger.Debug("批次参数已解析",
		zap.String("action", string(action)),
		zap.Float64("buy_amount", out.BuyAmount),
		zap.Float64("sell_percentage", out.SellPercentage),
		zap.Float64("price", out.Price),
	)

	return out, nil
}

// resolvePrice 依次尝试已给定值、配置值(<=0视为未配置)，最后以当前市场价
// 作为默认值交互输入。行情缺失且没有其他来源时整个批次按校验失败中止。
func (r *Resolver) resolvePrice(ctx context.Context, seed *Resolved, quote PriceQuoter) (float64, error) {
	if value, ok, err := seedSource(seed, func(s Resolved) float64 { return s.Price })(ctx); err != nil || ok {
		return value, err
	}
	if value, ok, err := configSource(r.trading.Price)(ctx); err != nil || ok {
		return value, err
	}

	if quote == nil {
		return 0, ErrPriceUndetermined
	}
	current, err := quote.CurrentPrice(ctx, r.trading.Symbol)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPriceUndetermined, err)
	}

	if r.prompt == nil {
		return current, nil
	}

	label := fmt.Sprintf("输入 %s 限价 (当前价 %s %s)",
		r.trading.Coin, formatDefault(current), r.trading.Quote)
	return r.promptFloat(label, formatDefault(current))
}

func (r *Resolver) amountPrompt() source {
	return func(ctx context.Context) (float64, bool, error) {
		if r.prompt == nil {
			return 0, false, nil
		}
		label := fmt.Sprintf("输入为所有账户花费的 %s 金额", r.trading.Quote)
		value, err := r.promptFloat(label, "0")
		if err != nil {
			return 0, false, err
		}
		return value, true, nil
	}
}

func (r *Resolver) percentagePrompt() source {
	return func(ctx context.Context) (float64, bool, error) {
		if r.prompt == nil {
			return 0, false, nil
		}
		label := fmt.Sprintf("输入所有账户卖出 %s 的比例 (1-100)", r.trading.Coin)
		value, err := r.promptFloat(label, "100")
		if err != nil {
			return 0, false, err
		}
		return value, true, nil
	}
}

func (r *Resolver) promptFloat(label, defaultValue string) (float64, error) {
	reply, err := r.prompt(label, defaultValue)
	if err != nil {
		return 0, fmt.Errorf("params: 读取交互输入失败: %w", err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		reply = defaultValue
	}
	value, err := strconv.ParseFloat(reply, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInputNotNumeric, reply)
	}
	return value, nil
}

func resolveField(ctx context.Context, sources ...source) (float64, error) {
	for _, src := range sources {
		value, ok, err := src(ctx)
		if err != nil {
			return 0, err
		}
		if ok {
			return value, nil
		}
	}
	return 0, nil
}

func seedSource(seed *Resolved, pick func(Resolved) float64) source {
	return func(ctx context.Context) (float64, bool, error) {
		if seed == nil {
			return 0, false, nil
		}
		value := pick(*seed)
		if value <= 0 {
			return 0, false, nil
		}
		return value, true, nil
	}
}

// configSource 将非正的配置值视为未配置。
func configSource(value float64) source {
	return func(ctx context.Context) (float64, bool, error) {
		if value <= 0 {
			return 0, false, nil
		}
		return value, true, nil
	}
}

func formatDefault(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
