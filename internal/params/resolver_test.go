package params

import (
	"context"
	"errors"
	"testing"

	"multi-trader/internal/config"
)

type stubQuoter struct {
	price float64
	err   error
	calls int
}

func (s *stubQuoter) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	return s.price, nil
}

// promptReplies 按序返回预置的输入，每次调用记录收到的默认值。
type promptReplies struct {
	replies  []string
	defaults []string
}

func (p *promptReplies) fn() PromptFunc {
	return func(label, defaultValue string) (string, error) {
		p.defaults = append(p.defaults, defaultValue)
		if len(p.replies) == 0 {
			return "", nil
		}
		reply := p.replies[0]
		p.replies = p.replies[1:]
		return reply, nil
	}
}

func testResolverTrading() config.TradingConfig {
	return config.TradingConfig{
		Symbol: "BTCUSDT",
		Coin:   "BTC",
		Quote:  "USDT",
	}
}

func TestResolve_UnknownAction(t *testing.T) {
	r := NewResolver(testResolverTrading(), nil, nil)

	_, err := r.Resolve(context.Background(), Action("teleport"), nil, nil)
	if !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
}

func TestResolve_CancelNeedsNothing(t *testing.T) {
	called := false
	prompt := func(label, defaultValue string) (string, error) {
		called = true
		return "", nil
	}
	r := NewResolver(testResolverTrading(), prompt, nil)
	quote := &stubQuoter{price: 50000}

	res, err := r.Resolve(context.Background(), ActionCancelBuyLimits, nil, quote)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != (Resolved{}) {
		t.Errorf("cancel action should resolve to zero params, got %+v", res)
	}
	if called || quote.calls != 0 {
		t.Errorf("cancel action should touch neither prompt nor quoter")
	}
}

func TestResolve_SeedBeatsConfigAndPrompt(t *testing.T) {
	trading := testResolverTrading()
	trading.BuyAmount = 100

	prompt := &promptReplies{}
	r := NewResolver(trading, prompt.fn(), nil)

	res, err := r.Resolve(context.Background(), ActionBuyMarket, &Resolved{BuyAmount: 25}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.BuyAmount != 25 {
		t.Errorf("seed value must win, got %v", res.BuyAmount)
	}
	if len(prompt.defaults) != 0 {
		t.Errorf("prompt should not run when seed is present")
	}
}

func TestResolve_ConfigBeatsPrompt(t *testing.T) {
	trading := testResolverTrading()
	trading.BuyAmount = 100

	prompt := &promptReplies{}
	r := NewResolver(trading, prompt.fn(), nil)

	res, err := r.Resolve(context.Background(), ActionBuyMarket, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.BuyAmount != 100 {
		t.Errorf("config value must win over prompt, got %v", res.BuyAmount)
	}
	if len(prompt.defaults) != 0 {
		t.Errorf("prompt should not run when config is set")
	}
}

func TestResolve_PromptIsLastResort(t *testing.T) {
	prompt := &promptReplies{replies: []string{"42.5"}}
	r := NewResolver(testResolverTrading(), prompt.fn(), nil)

	res, err := r.Resolve(context.Background(), ActionBuyMarket, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.BuyAmount != 42.5 {
		t.Errorf("expected prompted amount 42.5, got %v", res.BuyAmount)
	}
}

func TestResolve_SellPercentageDefaultsTo100(t *testing.T) {
	prompt := &promptReplies{replies: []string{""}}
	r := NewResolver(testResolverTrading(), prompt.fn(), nil)

	res, err := r.Resolve(context.Background(), ActionSellMarket, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.SellPercentage != 100 {
		t.Errorf("empty reply should fall back to default 100, got %v", res.SellPercentage)
	}
	if len(prompt.defaults) != 1 || prompt.defaults[0] != "100" {
		t.Errorf("expected default \"100\", got %v", prompt.defaults)
	}
}

func TestResolve_SellPercentageOutOfRange(t *testing.T) {
	for _, reply := range []string{"0", "-5", "150"} {
		prompt := &promptReplies{replies: []string{reply}}
		r := NewResolver(testResolverTrading(), prompt.fn(), nil)

		_, err := r.Resolve(context.Background(), ActionSellMarket, nil, nil)
		if !errors.Is(err, ErrSellPercentageInvalid) {
			t.Errorf("reply %q: expected ErrSellPercentageInvalid, got %v", reply, err)
		}
	}
}

func TestResolve_NonNumericInput(t *testing.T) {
	prompt := &promptReplies{replies: []string{"abc"}}
	r := NewResolver(testResolverTrading(), prompt.fn(), nil)

	_, err := r.Resolve(context.Background(), ActionBuyMarket, nil, nil)
	if !errors.Is(err, ErrInputNotNumeric) {
		t.Fatalf("expected ErrInputNotNumeric, got %v", err)
	}
}

func TestResolve_PriceUsesMarketAsDefault(t *testing.T) {
	prompt := &promptReplies{replies: []string{""}}
	r := NewResolver(testResolverTrading(), prompt.fn(), nil)
	quote := &stubQuoter{price: 50000}

	res, err := r.Resolve(context.Background(), ActionBuyLimit, &Resolved{BuyAmount: 100}, quote)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Price != 50000 {
		t.Errorf("empty reply should adopt the current price, got %v", res.Price)
	}
	if len(prompt.defaults) != 1 || prompt.defaults[0] != "50000" {
		t.Errorf("prompt default should carry the current price, got %v", prompt.defaults)
	}
}

func TestResolve_PriceWithoutPromptTakesMarket(t *testing.T) {
	r := NewResolver(testResolverTrading(), nil, nil)
	quote := &stubQuoter{price: 61234.5}

	res, err := r.Resolve(context.Background(), ActionSellLimit, &Resolved{SellPercentage: 100}, quote)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Price != 61234.5 {
		t.Errorf("expected market price, got %v", res.Price)
	}
}

func TestResolve_PriceUndeterminedAbortsBatch(t *testing.T) {
	r := NewResolver(testResolverTrading(), nil, nil)
	quote := &stubQuoter{err: errors.New("network down")}

	_, err := r.Resolve(context.Background(), ActionBuyLimit, &Resolved{BuyAmount: 100}, quote)
	if !errors.Is(err, ErrPriceUndetermined) {
		t.Fatalf("expected ErrPriceUndetermined, got %v", err)
	}

	_, err = r.Resolve(context.Background(), ActionBuyLimit, &Resolved{BuyAmount: 100}, nil)
	if !errors.Is(err, ErrPriceUndetermined) {
		t.Fatalf("expected ErrPriceUndetermined without quoter, got %v", err)
	}
}

func TestResolve_ConfiguredPriceSkipsQuoter(t *testing.T) {
	trading := testResolverTrading()
	trading.Price = 48000
	trading.SellPercentage = 50

	r := NewResolver(trading, nil, nil)
	quote := &stubQuoter{err: errors.New("should not be called")}

	res, err := r.Resolve(context.Background(), ActionSellLimit, nil, quote)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Price != 48000 || res.SellPercentage != 50 {
		t.Errorf("unexpected resolution %+v", res)
	}
	if quote.calls != 0 {
		t.Errorf("quoter should not run when price is configured")
	}
}
