package account

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"multi-trader/internal/config"
	"multi-trader/internal/exchange"
	"multi-trader/internal/execution"
)

// ErrNoActiveAccounts 表示启动时没有任何账户通过初始化。
var ErrNoActiveAccounts = errors.New("account: 没有任何账户初始化成功")

// Account 代表一个独立的交易所账户。
// active 只在启动阶段由不可用转换而来，进程生命周期内不会恢复；
// 不可用的账户被排除在所有批量操作之外。
type Account struct {
	Name   string
	Client execution.Client
	active bool
}

// New 构造处于可用状态的账户。
func New(name string, client execution.Client) *Account {
	return &Account{Name: name, Client: client, active: true}
}

// Active 返回账户是否参与批量操作。
func (a *Account) Active() bool {
	return a.active
}

// Deactivate 将账户标记为不可用。该转换不可逆。
func (a *Account) Deactivate() {
	a.active = false
}

// Initialize 按配置顺序构造全部账户并逐一做连通性探测。
// 凭证缺失或探测失败的账户被标记为不可用，启动流程继续；
// 仅当没有任何账户可用时返回 ErrNoActiveAccounts。
func Initialize(ctx context.Context, cfgs []config.AccountConfig, logger *zap.Logger) ([]*Account, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	accounts := make([]*Account, 0, len(cfgs))
	activeCount := 0

	for _, acctCfg := range cfgs {
		if !acctCfg.HasCredentials() {
			logger.Warn("账户缺少API凭证，标记为不可用", zap.String("account", acctCfg.Name))
			acct := New(acctCfg.Name, nil)
			acct.Deactivate()
			accounts = append(accounts, acct)
			continue
		}

		client, err := exchange.NewClient(acctCfg, logger)
		if err != nil {
			logger.Warn("账户客户端初始化失败",
				zap.String("account", acctCfg.Name),
				zap.Error(err),
			)
			acct := New(acctCfg.Name, nil)
			acct.Deactivate()
			accounts = append(accounts, acct)
			continue
		}

		acct := New(acctCfg.Name, client)
		if err := client.Probe(ctx); err != nil {
			logger.Warn("账户连通性探测失败，标记为不可用",
				zap.String("account", acctCfg.Name),
				zap.Error(err),
			)
			acct.Deactivate()
		} else {
			logger.Info("账户初始化成功", zap.String("account", acctCfg.Name))
			activeCount++
		}
		accounts = append(accounts, acct)
	}

	if activeCount == 0 {
		return accounts, ErrNoActiveAccounts
	}

	return accounts, nil
}
