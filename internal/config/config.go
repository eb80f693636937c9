package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/pedrostorrios-lang/padaria-gestao/internal/combo"
)

// Config is the application configuration, loaded from YAML with
// environment-variable overrides for the connection settings.
type Config struct {
	HTTP      HTTPConfig      `mapstructure:"http"`
	MySQL     MySQLConfig     `mapstructure:"mysql"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Deduction DeductionConfig `mapstructure:"deduction"`
	Combos    CombosConfig    `mapstructure:"combos"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
}

type HTTPConfig struct {
	Port string `mapstructure:"port"`
}

type MySQLConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	User string `mapstructure:"user"`
	Pass string `mapstructure:"pass"`
	Name string `mapstructure:"name"`
}

func (m MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", m.User, m.Pass, m.Host, m.Port, m.Name)
}

type RedisConfig struct {
	Addr string `mapstructure:"addr"`
}

type KafkaConfig struct {
	Brokers    []string `mapstructure:"brokers"`
	SalesTopic string   `mapstructure:"sales_topic"`
	GroupID    string   `mapstructure:"group_id"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	// RolePolicy is "master_bypass" or "exact_match"; see service.RolePolicy.
	RolePolicy string `mapstructure:"role_policy"`
}

// DeductionConfig seeds the deduction profile used before an administrator
// configures one.
type DeductionConfig struct {
	FixedCosts      float64 `mapstructure:"fixed_costs"`
	ExpectedRevenue float64 `mapstructure:"expected_revenue"`
	TaxRate         float64 `mapstructure:"tax_rate"`
	CardFeeRate     float64 `mapstructure:"card_fee_rate"`
	RoyaltyRate     float64 `mapstructure:"royalty_rate"`
}

// CombosConfig exposes the recommender's segmentation thresholds and
// strategy table.
type CombosConfig struct {
	StarMargin   float64          `mapstructure:"star_margin"`
	PuzzleMargin float64          `mapstructure:"puzzle_margin"`
	Strategies   []combo.Strategy `mapstructure:"strategies"`
}

type AnalysisConfig struct {
	// TierBy is "revenue" (default) or "quantity".
	TierBy string `mapstructure:"tier_by"`
}

// Load reads the YAML config file and applies defaults and env overrides.
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	viper.SetDefault("http.port", "8080")
	viper.SetDefault("mysql.host", "127.0.0.1")
	viper.SetDefault("mysql.port", "3306")
	viper.SetDefault("mysql.user", "root")
	viper.SetDefault("mysql.name", "padaria")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("kafka.brokers", []string{"localhost:9092"})
	viper.SetDefault("kafka.sales_topic", "sales-topic")
	viper.SetDefault("kafka.group_id", "padaria-analysis-group")
	viper.SetDefault("auth.jwt_secret", "secret")
	viper.SetDefault("auth.role_policy", "master_bypass")
	viper.SetDefault("deduction.expected_revenue", 1.0)
	viper.SetDefault("combos.star_margin", combo.DefaultThresholds.StarMargin)
	viper.SetDefault("combos.puzzle_margin", combo.DefaultThresholds.PuzzleMargin)
	viper.SetDefault("analysis.tier_by", "revenue")

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional; defaults plus env cover local runs.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			if _, statErr := os.Stat(configPath); statErr == nil {
				return nil, fmt.Errorf("read config failed: %w", err)
			}
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %w", err)
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.HTTP.Port = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.MySQL.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		cfg.MySQL.Port = v
	}
	if v := os.Getenv("DB_USER"); v != "" {
		cfg.MySQL.User = v
	}
	if v := os.Getenv("DB_PASS"); v != "" {
		cfg.MySQL.Pass = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.MySQL.Name = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
}
