package config

import (
	"bytes"
	"encoding/base64"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides: OTPGATE_DATABASE_URL overrides
// database.url.
const EnvPrefix = "OTPGATE"

// Viper implements Config on top of spf13/viper.
type Viper struct {
	v *viper.Viper
}

// NewViper reads the file at path (type inferred from its extension), applies
// environment overrides, and reloads on file change.
func NewViper(path string) (*Viper, error) {
	v := newViper()

	base := filepath.Base(path)
	v.AddConfigPath(filepath.Dir(path))
	v.SetConfigName(strings.TrimSuffix(base, filepath.Ext(base)))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		slog.Info("config file changed", "path", e.Name, "op", e.Op.String())
	})
	v.WatchConfig()

	return &Viper{v: v}, nil
}

// NewViperFromBytes reads configuration of the given type ("yaml", "json")
// from memory. Used by tests.
func NewViperFromBytes(configType string, data []byte) (*Viper, error) {
	if strings.TrimSpace(configType) == "" {
		return nil, errors.New("config: type is required")
	}

	v := newViper()
	v.SetConfigType(configType)

	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}

	return &Viper{v: v}, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

func (c *Viper) GetBool(key string) bool       { return c.v.GetBool(key) }
func (c *Viper) GetString(key string) string   { return c.v.GetString(key) }
func (c *Viper) GetInt(key string) int         { return c.v.GetInt(key) }
func (c *Viper) GetInt32(key string) int32     { return c.v.GetInt32(key) }
func (c *Viper) GetInt64(key string) int64     { return c.v.GetInt64(key) }
func (c *Viper) GetUint16(key string) uint16   { return uint16(c.v.GetUint(key)) }
func (c *Viper) GetFloat64(key string) float64 { return c.v.GetFloat64(key) }

func (c *Viper) GetSecond(key string) time.Duration {
	return time.Duration(c.v.GetInt64(key)) * time.Second
}

func (c *Viper) GetMinute(key string) time.Duration {
	return time.Duration(c.v.GetInt64(key)) * time.Minute
}

func (c *Viper) GetDay(key string) time.Duration {
	return time.Duration(c.v.GetInt64(key)) * 24 * time.Hour
}

func (c *Viper) GetBinary(key string) []byte {
	raw := strings.TrimSpace(c.v.GetString(key))
	if raw == "" {
		return nil
	}

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		slog.Warn("config value is not valid base64", "key", key)
		return nil
	}

	return data
}

// GetArray accepts both a YAML sequence and a comma separated string.
func (c *Viper) GetArray(key string) []string {
	var raw []string
	if s, ok := c.v.Get(key).(string); ok {
		raw = strings.Split(s, ",")
	} else {
		raw = c.v.GetStringSlice(key)
	}

	return lo.FilterMap(raw, func(s string, _ int) (string, bool) {
		s = strings.TrimSpace(s)
		return s, s != ""
	})
}

func (c *Viper) GetMap(key string) map[string]string {
	out := map[string]string{}

	for _, pair := range c.GetArray(key) {
		k, v, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}

	return out
}

// Close has nothing to release; viper's watcher lives for the process.
func (c *Viper) Close() error {
	return nil
}
