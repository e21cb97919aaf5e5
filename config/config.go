package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/coderi421/crudx/orm"
	"github.com/coderi421/crudx/orm/model"
	"github.com/go-sql-driver/mysql"
	"github.com/spf13/viper"
)

const envPrefix = "CRUD"

// Config 数据库连接以及 DB 的配置
// 配置文件里的字段都可以用 CRUD_ 开头的环境变量覆盖，例如 CRUD_DSN
type Config struct {
	Driver  string `mapstructure:"driver"`
	DSN     string `mapstructure:"dsn"`
	Dialect string `mapstructure:"dialect"`
	// Underscore 表名和列名是否转成下划线形式
	Underscore bool   `mapstructure:"underscore"`
	Schema     string `mapstructure:"schema"`
	// Valuer 结果集的映射方式 materializer、reflect 或者 unsafe
	Valuer             string `mapstructure:"valuer"`
	StatementCacheSize int    `mapstructure:"statement_cache_size"`
	// SlowThreshold 超过这个时间的语句会被当成慢查询
	SlowThreshold time.Duration `mapstructure:"slow_threshold"`
}

// Load 读取配置文件，path 为空的时候只使用默认值和环境变量
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("driver", "sqlite3")
	v.SetDefault("dsn", "file:crud.db?cache=shared&mode=memory")
	v.SetDefault("dialect", "")
	v.SetDefault("underscore", true)
	v.SetDefault("schema", "")
	v.SetDefault("valuer", "materializer")
	v.SetDefault("statement_cache_size", 128)
	v.SetDefault("slow_threshold", "200ms")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: 读取配置文件 %s 失败: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: 解析配置失败: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalize MySQL 需要 parseTime 才能把 DATETIME 读成 time.Time
func (c *Config) normalize() error {
	if c.Driver != "mysql" {
		return nil
	}
	dsn, err := mysql.ParseDSN(c.DSN)
	if err != nil {
		return fmt.Errorf("config: 错误的 MySQL DSN: %w", err)
	}
	dsn.ParseTime = true
	c.DSN = dsn.FormatDSN()
	return nil
}

// DBOptions 把配置转换成 orm.DBOption
// 没有配置方言的时候按照驱动名选择
func (c *Config) DBOptions() ([]orm.DBOption, error) {
	name := c.Dialect
	if name == "" {
		name = c.Driver
	}
	dialect, ok := orm.DialectByName(name)
	if !ok {
		return nil, fmt.Errorf("config: 不支持的方言 %s", name)
	}
	opts := []orm.DBOption{
		orm.DBWithDialect(dialect),
		orm.DBWithRegistryOptions(
			model.WithUnderscore(c.Underscore),
			model.WithDefaultSchema(c.Schema),
		),
		orm.DBWithStatementCacheSize(c.StatementCacheSize),
	}
	switch strings.ToLower(c.Valuer) {
	case "", "materializer":
		opts = append(opts, orm.DBUseMaterializer())
	case "reflect":
		opts = append(opts, orm.DBUseReflectValuer())
	case "unsafe":
		opts = append(opts, orm.DBUseUnsafeValuer())
	default:
		return nil, fmt.Errorf("config: 不支持的 valuer %s", c.Valuer)
	}
	return opts, nil
}

// Open 按照配置打开数据库，opts 追加在配置生成的选项之后
func (c *Config) Open(opts ...orm.DBOption) (*orm.DB, error) {
	dbOpts, err := c.DBOptions()
	if err != nil {
		return nil, err
	}
	return orm.Open(c.Driver, c.DSN, append(dbOpts, opts...)...)
}
