package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"multi-trader/internal/account"
	"multi-trader/internal/batch"
	"multi-trader/internal/config"
	"multi-trader/internal/execution"
	"multi-trader/internal/params"
	"multi-trader/internal/store"
)

// App 聚合核心依赖并驱动系统生命周期。
type App struct {
	cfg     *config.Config
	logger  *zap.Logger
	journal *store.Journal
}

// New 创建 App 实例。
func New(cfg *config.Config, logger *zap.Logger, journal *store.Journal) *App {
	return &App{
		cfg:     cfg,
		logger:  logger,
		journal: journal,
	}
}

// Run 初始化全部账户后进入操作循环。
// oneShot 非空时只执行一次指定操作并退出，否则进入交互菜单。
func (a *App) Run(ctx context.Context, oneShot params.Action) error {
	accounts, err := account.Initialize(ctx, a.cfg.Accounts, a.logger)
	if err != nil {
		return err
	}

	activeCount := 0
	for _, acct := range accounts {
		if acct.Active() {
			activeCount++
		}
	}

	a.logger.Info("系统初始化完成",
		zap.String("environment", a.cfg.App.Environment),
		zap.String("symbol", a.cfg.Trading.Symbol),
		zap.String("pair", a.cfg.Trading.Coin+"/"+a.cfg.Trading.Quote),
		zap.Int("accounts", len(accounts)),
		zap.Int("active", activeCount),
	)

	cons := newConsole(os.Stdin)
	resolver := params.NewResolver(a.cfg.Trading, cons.prompt, a.logger)
	executor := execution.NewExecutor(a.cfg.Trading, a.logger)
	runner := batch.NewRunner(accounts, resolver, executor, a.cfg.Batch, a.logger)

	if oneShot != "" {
		_, err := a.runBatch(ctx, runner, oneShot)
		return err
	}

	return a.menuLoop(ctx, cons, runner)
}

var menuActions = map[string]params.Action{
	"1": params.ActionBuyMarket,
	"2": params.ActionBuyLimit,
	"3": params.ActionSellMarket,
	"4": params.ActionSellLimit,
	"5": params.ActionCancelBuyLimits,
	"6": params.ActionCancelSellLimits,
}

func (a *App) menuLoop(ctx context.Context, cons *console, runner *batch.Runner) error {
	for {
		printMenu()

		choice, ok := cons.next(ctx)
		if !ok {
			if ctx.Err() != nil {
				a.logger.Info("收到退出信号，正在停止")
			}
			return nil
		}

		if action, actionOK := menuActions[choice]; actionOK {
			if _, err := a.runBatch(ctx, runner, action); err != nil {
				a.logger.Error("批次中止", zap.Error(err))
			}
			continue
		}

		switch choice {
		case "7":
			a.printHistory(ctx)
		case "8":
			a.logger.Info("操作者选择退出")
			return nil
		default:
			fmt.Println("无效的命令，请重新输入。")
		}
	}
}

func (a *App) runBatch(ctx context.Context, runner *batch.Runner, action params.Action) (batch.Result, error) {
	result, err := runner.Run(ctx, action, nil)
	if err != nil {
		return result, err
	}

	for _, outcome := range result.Results {
		switch outcome.Outcome {
		case execution.OutcomeSuccess:
			a.logger.Info("账户操作成功",
				zap.String("account", outcome.Account),
				zap.String("order_id", outcome.OrderID),
			)
		case execution.OutcomeSkipped:
			a.logger.Info("账户操作跳过",
				zap.String("account", outcome.Account),
				zap.String("reason", outcome.Reason),
			)
		default:
			a.logger.Warn("账户操作失败",
				zap.String("account", outcome.Account),
				zap.String("reason", outcome.Reason),
			)
		}
	}

	fmt.Println(result.Summary())

	if a.journal != nil {
		if _, err := a.journal.RecordBatch(ctx, result); err != nil {
			a.logger.Warn("批次流水写入失败", zap.Error(err))
		}
	}

	return result, nil
}

func (a *App) printHistory(ctx context.Context) {
	if a.journal == nil {
		fmt.Println("流水库未启用。")
		return
	}

	records, err := a.journal.RecentBatches(ctx, 10)
	if err != nil {
		a.logger.Warn("查询历史批次失败", zap.Error(err))
		return
	}
	if len(records) == 0 {
		fmt.Println("暂无历史批次。")
		return
	}

	for _, rec := range records {
		fmt.Printf("#%d %s %s 成功%d 跳过%d 失败%d / 共%d\n",
			rec.ID, rec.StartedAt.Local().Format("2006-01-02 15:04:05"),
			rec.Action, rec.Succeeded, rec.Skipped, rec.Failed, rec.Total)
	}
}

func printMenu() {
	fmt.Println()
	fmt.Println("可用命令:")
	fmt.Println("1. 市价买入")
	fmt.Println("2. 限价买入")
	fmt.Println("3. 市价卖出")
	fmt.Println("4. 限价卖出")
	fmt.Println("5. 撤销全部限价买单")
	fmt.Println("6. 撤销全部限价卖单")
	fmt.Println("7. 查看最近批次")
	fmt.Println("8. 退出")
	fmt.Print("\n输入命令 (1-8): ")
}

// console 把阻塞的标准输入读取挪到独立 goroutine，菜单循环和参数解析
// 共用同一条输入通道，互不抢行，菜单还能同时响应退出信号。
type console struct {
	lines chan string
}

func newConsole(r io.Reader) *console {
	c := &console{lines: make(chan string)}
	go func() {
		defer close(c.lines)
		reader := bufio.NewReader(r)
		for {
			line, err := reader.ReadString('\n')
			if line != "" {
				c.lines <- strings.TrimRight(line, "\r\n")
			}
			if err != nil {
				return
			}
		}
	}()
	return c
}

// next 读取下一行菜单输入，上下文取消时返回 false。
func (c *console) next(ctx context.Context) (string, bool) {
	select {
	case <-ctx.Done():
		return "", false
	case line, ok := <-c.lines:
		if !ok {
			return "", false
		}
		return strings.TrimSpace(line), true
	}
}

// prompt 实现 params.PromptFunc。
func (c *console) prompt(label, defaultValue string) (string, error) {
	fmt.Printf("%s [%s]: ", label, defaultValue)
	line, ok := <-c.lines
	if !ok {
		return "", io.EOF
	}
	return strings.TrimSpace(line), nil
}
