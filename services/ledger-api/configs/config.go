package configs

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/utils"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type Config struct {
	Port          string `mapstructure:"PORT" validate:"required"`
	PrimaryDbAddr string `mapstructure:"PRIMARY_DB_ADDR" validate:"required"`
	ReadDbAddr    string `mapstructure:"READ_DB_ADDR"`
	MaxDbCons     int32  `mapstructure:"MAX_DB_CONNECTIONS" validate:"min=1"`
	MinDbCons     int32  `mapstructure:"MIN_DB_CONNECTIONS" validate:"min=1"`

	JwtSecret   string        `mapstructure:"JWT_SECRET" validate:"required,min=16"`
	JwtTTL      time.Duration `mapstructure:"JWT_TTL" validate:"gt=0"`
	PinHashCost int           `mapstructure:"PIN_HASH_COST" validate:"min=4,max=31"`

	// Accrual and execution
	InterestRate          float64       `mapstructure:"INTEREST_RATE" validate:"gte=0"`
	CompoundingPeriod     time.Duration `mapstructure:"COMPOUNDING_PERIOD" validate:"gt=0"`
	ExecutionTimeout      time.Duration `mapstructure:"EXECUTION_TIMEOUT" validate:"gt=0"`
	RestoreAccrualOnStart bool          `mapstructure:"RESTORE_ACCRUAL_ON_START"`

	// Admission
	RedisAddr         string `mapstructure:"REDIS_ADDR"`
	TxRateLimitPerSec int    `mapstructure:"TX_RATE_LIMIT_PER_SEC" validate:"gte=0"`
	TxRateLimitBurst  int    `mapstructure:"TX_RATE_LIMIT_BURST" validate:"gte=1"`

	// Committed-ledger event stream; disabled when KafkaBrokers is empty.
	KafkaBrokers         string        `mapstructure:"KAFKA_BROKERS"`
	KafkaLedgerTopic     string        `mapstructure:"KAFKA_LEDGER_TOPIC" validate:"required"`
	KafkaPartition       uint32        `mapstructure:"KAFKA_PARTITION" validate:"min=1"`
	KafkaRetry           int           `mapstructure:"KAFKA_RETRY" validate:"min=1"`
	KafkaLedgerRetention time.Duration `mapstructure:"KAFKA_LEDGER_RETENTION" validate:"gt=0"`
}

func Load(logger *zap.Logger) (*Config, error) {
	viper.SetEnvPrefix("app") // Prefix for env vars
	viper.AutomaticEnv()

	// Default values
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("MAX_DB_CONNECTIONS", "10")
	viper.SetDefault("MIN_DB_CONNECTIONS", "2")
	viper.SetDefault("JWT_TTL", "1h")
	viper.SetDefault("PIN_HASH_COST", "10")
	viper.SetDefault("INTEREST_RATE", "0.05")
	viper.SetDefault("COMPOUNDING_PERIOD", "1s")
	viper.SetDefault("EXECUTION_TIMEOUT", "5s")
	viper.SetDefault("RESTORE_ACCRUAL_ON_START", "true")
	viper.SetDefault("TX_RATE_LIMIT_PER_SEC", "0")
	viper.SetDefault("TX_RATE_LIMIT_BURST", "20")
	viper.SetDefault("KAFKA_LEDGER_TOPIC", "ledger-events")
	viper.SetDefault("KAFKA_PARTITION", "4")
	viper.SetDefault("KAFKA_RETRY", "3")
	viper.SetDefault("KAFKA_LEDGER_RETENTION", "168h")

	if gin.ReleaseMode == gin.Mode() {
		viper.SetConfigName("config.prod")
	} else if gin.TestMode == gin.Mode() {
		logger.Warn("running_in_test_mode")
		viper.SetConfigName("config.test")
	} else {
		logger.Warn("running_in_development_mode")
		viper.SetConfigName("config.dev")
	}
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./services/ledger-api/configs")
	_ = viper.ReadInConfig() // Ignore if no file

	var cfg Config
	if err := utils.ParseStructEnv(&cfg); err != nil {
		return nil, err
	}
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, utils.FormatConfigErrors(logger, err, cfg)
	}
	return &cfg, nil
}
