package batch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"multi-trader/internal/account"
	"multi-trader/internal/config"
	"multi-trader/internal/execution"
	"multi-trader/internal/params"
)

// Result 汇总一次批量操作中每个账户的结果。
// Results 的键为账户名，不可用账户永远不会出现在其中。
type Result struct {
	Action     params.Action
	Results    map[string]execution.OrderResult
	Succeeded  int
	Skipped    int
	Failed     int
	Total      int
	StartedAt  time.Time
	FinishedAt time.Time
}

// FullySucceeded 判断批次是否没有任何失败。跳过不计为失败。
func (r Result) FullySucceeded() bool {
	return r.Total > 0 && r.Failed == 0
}

// Summary 生成面向操作者的单行汇总。
func (r Result) Summary() string {
	if r.Total == 0 {
		return "没有账户参与本次操作"
	}
	if r.FullySucceeded() {
		return fmt.Sprintf("全部 %d 个账户操作完成", r.Total)
	}
	return fmt.Sprintf("%d/%d 个账户操作完成", r.Succeeded+r.Skipped, r.Total)
}

// Runner 在全部可用账户上按固定顺序执行同一个操作。
type Runner struct {
	accounts    []*account.Account
	resolver    *params.Resolver
	executor    *execution.Executor
	delay       time.Duration
	parallelism int
	logger      *zap.Logger
}

// NewRunner 创建批量执行器。accounts 在一次运行内视为不可变集合。
func NewRunner(accounts []*account.Account, resolver *params.Resolver, executor *execution.Executor, cfg config.BatchConfig, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	parallelism := cfg.Parallelism
	if parallelism <= 0 {
		parallelism = 1
	}
	return &Runner{
		accounts:    accounts,
		resolver:    resolver,
		executor:    executor,
		delay:       cfg.AccountDelay,
		parallelism: parallelism,
		logger:      logger,
	}
}

// Run 执行一次批量操作。参数在接触任何账户之前解析一次并在批次内共享，
// 解析失败时返回空结果。单个账户的任何异常都被隔离为该账户的失败结果。
func (r *Runner) Run(ctx context.Context, action params.Action, seed *params.Resolved) (Result, error) {
	result := Result{
		Action:    action,
		Results:   make(map[string]execution.OrderResult),
		StartedAt: time.Now().UTC(),
	}

	active := r.activeAccounts()
	if len(active) == 0 {
		r.logger.Warn("没有可用账户，跳过本次操作", zap.String("action", string(action)))
		result.FinishedAt = time.Now().UTC()
		return result, nil
	}

	resolved, err := r.resolver.Resolve(ctx, action, seed, active[0].Client)
	if err != nil {
		result.FinishedAt = time.Now().UTC()
		return result, fmt.Errorf("batch: 参数解析失败: %w", err)
	}

	// 结果写入互不相交的下标槽位，解析后的参数在批次内只读共享
	outcomes := make([]execution.OrderResult, len(active))

	if r.parallelism > 1 {
		r.runBounded(ctx, active, action, resolved, outcomes)
	} else {
		r.runSequential(ctx, active, action, resolved, outcomes)
	}

	for _, outcome := range outcomes {
		result.Results[outcome.Account] = outcome
		switch outcome.Outcome {
		case execution.OutcomeSuccess:
			result.Succeeded++
		case execution.OutcomeSkipped:
			result.Skipped++
		default:
			result.Failed++
		}
	}
	result.Total = len(outcomes)
	result.FinishedAt = time.Now().UTC()

	r.logger.Info("批量操作完成",
		zap.String("action", string(action)),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
		zap.Int("total", result.Total),
	)

	return result, nil
}

// runSequential 按配置顺序逐个账户执行，账户之间插入固定间隔。
// 间隔是避免触发交易所限频的节奏控制，不是重试退避。
func (r *Runner) runSequential(ctx context.Context, active []*account.Account, action params.Action, resolved params.Resolved, outcomes []execution.OrderResult) {
	for i, acct := range active {
		if i > 0 && r.delay > 0 {
			timer := time.NewTimer(r.delay)
			select {
			case <-ctx.Done():
				timer.Stop()
			case <-timer.C:
			}
		}
		outcomes[i] = r.executeSafely(ctx, acct, action, resolved)
	}
}

// runBounded 以有界并发执行账户，完成顺序不定，结果槽位互不相交。
// 并发模式下不再插入账户间隔，节奏由并发上限约束。
func (r *Runner) runBounded(ctx context.Context, active []*account.Account, action params.Action, resolved params.Resolved, outcomes []execution.OrderResult) {
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.parallelism)

	for i, acct := range active {
		i, acct := i, acct
		group.Go(func() error {
			outcomes[i] = r.executeSafely(groupCtx, acct, action, resolved)
			return nil
		})
	}

	_ = group.Wait()
}

// executeSafely 执行单个账户并把 panic 折叠为失败结果，保证一个账户的
// 异常不会中断批次内的其他账户。
func (r *Runner) executeSafely(ctx context.Context, acct *account.Account, action params.Action, resolved params.Resolved) (result execution.OrderResult) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("账户执行过程发生panic",
				zap.String("account", acct.Name),
				zap.Any("panic", rec),
			)
			result = execution.Failure(acct.Name, fmt.Errorf("batch: 执行过程panic: %v", rec))
		}
	}()

	if err := ctx.Err(); err != nil {
		return execution.Failure(acct.Name, err)
	}

	return r.executor.Execute(ctx, acct.Name, acct.Client, action, resolved)
}

func (r *Runner) activeAccounts() []*account.Account {
	active := make([]*account.Account, 0, len(r.accounts))
	for _, acct := range r.accounts {
		if acct.Active() {
			active = append(active, acct)
		}
	}
	return active
}
