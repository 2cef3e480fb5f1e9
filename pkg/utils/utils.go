package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/nimeshabuddhika/resilient-ledger/pkg"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// IsEmpty checks if a string is empty.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

func GetTraceID(c *gin.Context) (string, error) {
	traceID := c.GetString(pkg.TraceId)
	if IsEmpty(traceID) {
		return "", errors.New("trace id is empty")
	}
	return traceID, nil
}

// GetCallerID returns the verified identity set by the auth middleware.
func GetCallerID(c *gin.Context) (int64, error) {
	callerID := c.GetInt64(pkg.CallerId)
	if callerID <= 0 {
		return 0, errors.New("caller identity is missing")
	}
	return callerID, nil
}

// ParseStructEnv binds env vars to struct fields using a mapstructure tag
func ParseStructEnv(cfg interface{}) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}
		if err := viper.BindEnv(tag); err != nil {
			return err
		}
	}
	return viper.Unmarshal(cfg)
}

// FormatConfigErrors logs every failed validation rule and returns a single summarising error.
func FormatConfigErrors(logger *zap.Logger, err error, cfg interface{}) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	t := reflect.TypeOf(cfg)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	keys := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		key := fe.Field()
		if field, ok := t.FieldByName(fe.StructField()); ok {
			if tag := field.Tag.Get("mapstructure"); tag != "" {
				key = tag
			}
		}
		logger.Error("invalid_config_value",
			zap.String("key", key),
			zap.String("rule", fe.Tag()),
			zap.String("param", fe.Param()))
		keys = append(keys, key)
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(keys, ", "))
}
