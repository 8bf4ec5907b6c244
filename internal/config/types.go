package config

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// Config 聚合了系统运行所需的全部配置项。
type Config struct {
	App      AppConfig       `mapstructure:"app"`
	Trading  TradingConfig   `mapstructure:"trading"`
	Accounts []AccountConfig `mapstructure:"accounts"`
	Batch    BatchConfig     `mapstructure:"batch"`
	Database DatabaseConfig  `mapstructure:"database"`
	Logging  LoggingConfig   `mapstructure:"logging"`
}

// AppConfig 控制应用级参数。
type AppConfig struct {
	Environment string `mapstructure:"environment"`
}

// TradingConfig 描述交易对及批量下单的静态参数。
// BuyAmount、SellPercentage、Price 为可选项，零值视为未配置，
// 未配置的字段在批量执行前通过交互方式补齐。
type TradingConfig struct {
	Symbol         string  `mapstructure:"symbol"`
	Coin           string  `mapstructure:"coin"`
	Quote          string  `mapstructure:"quote"`
	BuyAmount      float64 `mapstructure:"buy_amount"`
	SellPercentage float64 `mapstructure:"sell_percentage"`
	Price          float64 `mapstructure:"price"`
}

// AccountConfig 描述单个交易所账户的凭证。
type AccountConfig struct {
	Name       string `mapstructure:"name"`
	APIKey     string `mapstructure:"api_key"`
	APISecret  string `mapstructure:"api_secret"`
	Passphrase string `mapstructure:"passphrase"`
}

// HasCredentials 判断凭证是否齐全。
func (a AccountConfig) HasCredentials() bool {
	return a.APIKey != "" && a.APISecret != "" && a.Passphrase != ""
}

// BatchConfig 控制批量执行的节奏。
// AccountDelay 是账户之间的固定间隔，用于避免触发交易所限频，不是退避重试。
// Parallelism 为 1 时严格串行，大于 1 时启用有界并发。
type BatchConfig struct {
	AccountDelay time.Duration `mapstructure:"account_delay"`
	Parallelism  int           `mapstructure:"parallelism"`
}

// DatabaseConfig 管理批次流水数据库。
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	InMemory        bool          `mapstructure:"in_memory"`
}

// LoggingConfig 控制日志输出。
type LoggingConfig struct {
	Level            string   `mapstructure:"level"`
	Encoding         string   `mapstructure:"encoding"`
	Development      bool     `mapstructure:"development"`
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// Validate 对配置进行基本校验。
func (c *Config) Validate() error {
	var err error

	if c.App.Environment == "" {
		err = multierr.Append(err, errors.New("app.environment 不能为空"))
	}
	if c.Trading.Symbol == "" {
		err = multierr.Append(err, errors.New("trading.symbol 不能为空"))
	}
	if c.Trading.Coin == "" {
		err = multierr.Append(err, errors.New("trading.coin 不能为空"))
	}
	if c.Trading.Quote == "" {
		err = multierr.Append(err, errors.New("trading.quote 不能为空"))
	}
	if c.Trading.BuyAmount < 0 {
		err = multierr.Append(err, errors.New("trading.buy_amount 不能为负"))
	}
	if c.Trading.SellPercentage < 0 || c.Trading.SellPercentage > 100 {
		err = multierr.Append(err, errors.New("trading.sell_percentage 必须位于[0,100]"))
	}
	if c.Trading.Price < 0 {
		err = multierr.Append(err, errors.New("trading.price 不能为负"))
	}
	if len(c.Accounts) == 0 {
		err = multierr.Append(err, errors.New("accounts 至少配置一个账户"))
	}
	seen := make(map[string]bool, len(c.Accounts))
	for i, acct := range c.Accounts {
		if acct.Name == "" {
			err = multierr.Append(err, fmt.Errorf("accounts[%d].name 不能为空", i))
			continue
		}
		if seen[acct.Name] {
			err = multierr.Append(err, fmt.Errorf("账户名称 %q 重复", acct.Name))
		}
		seen[acct.Name] = true
	}
	if c.Batch.AccountDelay < 0 {
		err = multierr.Append(err, errors.New("batch.account_delay 不能为负"))
	}
	if c.Batch.Parallelism <= 0 {
		err = multierr.Append(err, errors.New("batch.parallelism 必须大于0"))
	}
	if c.Database.Path == "" && !c.Database.InMemory {
		err = multierr.Append(err, errors.New("database.path 不能为空"))
	}
	if c.Database.MaxOpenConns <= 0 {
		err = multierr.Append(err, errors.New("database.max_open_conns 必须大于0"))
	}
	if c.Database.MaxIdleConns < 0 {
		err = multierr.Append(err, errors.New("database.max_idle_conns 不能为负"))
	}
	if c.Database.ConnMaxLifetime < 0 {
		err = multierr.Append(err, errors.New("database.conn_max_lifetime 不能为负"))
	}
	if c.Logging.Level == "" {
		err = multierr.Append(err, errors.New("logging.level 不能为空"))
	}
	if c.Logging.Encoding == "" {
		err = multierr.Append(err, errors.New("logging.encoding 不能为空"))
	}
	if len(c.Logging.OutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.output_paths 至少包含一个输出目标"))
	}
	if len(c.Logging.ErrorOutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.error_output_paths 至少包含一个输出目标"))
	}

	if err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}

	return nil
}
