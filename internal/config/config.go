package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	defaultConfigPath = "configs/config.yaml"
	envPrefix         = "trader"
)

// ErrConfigCreated 表示配置文件不存在，已生成默认模板，需要操作者填写后重新启动。
var ErrConfigCreated = errors.New("已生成默认配置文件，请填写账户凭证后重新启动")

// Load 读取配置文件并结合环境变量返回 Config。
// 配置文件不存在时写入默认模板并返回 ErrConfigCreated。
func Load(path string) (*Config, error) {
	if path == "" {
		path = defaultConfigPath
	}

	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		if err := WriteDefault(path); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", ErrConfigCreated, path)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix(envPrefix)
	replacer := strings.NewReplacer(".", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", "development")

	v.SetDefault("batch.account_delay", "300ms")
	v.SetDefault("batch.parallelism", 1)

	v.SetDefault("database.path", "data/multi_trader.db")
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.max_idle_conns", 4)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.in_memory", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.encoding", "console")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.output_paths", []string{"stdout"})
	v.SetDefault("logging.error_output_paths", []string{"stderr"})
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

const defaultConfigTemplate = `# multi-trader 配置模板
# 填写账户凭证后重新启动程序。
app:
  environment: development

trading:
  symbol: BTCUSDT
  coin: BTC
  quote: USDT
  # 以下三项可选，留空(或为0)时在每次批量操作前交互输入
  # buy_amount: 50
  # sell_percentage: 100
  # price: 0

accounts:
  - name: account_1
    api_key: YOUR_API_KEY_HERE
    api_secret: YOUR_API_SECRET_HERE
    passphrase: YOUR_PASSPHRASE_HERE
  - name: account_2
    api_key: SECOND_API_KEY_HERE
    api_secret: SECOND_API_SECRET_HERE
    passphrase: SECOND_PASSPHRASE_HERE

batch:
  account_delay: 300ms
  parallelism: 1

database:
  path: data/multi_trader.db

logging:
  level: info
  encoding: console
`

// WriteDefault 在指定路径写入默认配置模板。
func WriteDefault(path string) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建配置目录失败: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0o600); err != nil {
		return fmt.Errorf("写入默认配置失败: %w", err)
	}
	return nil
}
