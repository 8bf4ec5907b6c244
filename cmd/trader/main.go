package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"multi-trader/internal/app"
	"multi-trader/internal/config"
	"multi-trader/internal/log"
	"multi-trader/internal/params"
	"multi-trader/internal/store"
)

func main() {
	var configPath string
	var actionName string
	flag.StringVar(&configPath, "config", "", "配置文件路径，默认使用 configs/config.yaml")
	flag.StringVar(&actionName, "action", "", "只执行一次指定操作后退出 (buy_market/buy_limit/sell_market/sell_limit/cancel_buy_limits/cancel_sell_limits)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		if errors.Is(err, config.ErrConfigCreated) {
			fmt.Println(err)
			return
		}
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	var oneShot params.Action
	if actionName != "" {
		oneShot = params.Action(actionName)
		if !oneShot.Valid() {
			fmt.Fprintf(os.Stderr, "不支持的操作类型: %q\n", actionName)
			os.Exit(1)
		}
	}

	logger, err := log.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	journal, err := store.NewJournal(cfg.Database)
	if err != nil {
		logger.Error("初始化流水库失败", zap.Error(err))
		os.Exit(1)
	}
	defer func() {
		if closeErr := journal.Close(); closeErr != nil {
			logger.Warn("关闭流水库失败", zap.Error(closeErr))
		}
	}()

	trader := app.New(cfg, logger, journal)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := trader.Run(ctx, oneShot); err != nil {
		logger.Error("系统运行异常", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("系统已安全退出")
}
