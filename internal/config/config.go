package config

import (
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Env string
	} `mapstructure:"app"`

	HTTP struct {
		Addr           string
		AllowedOrigins string `mapstructure:"allowed_origins"`
	} `mapstructure:"http"`

	Log struct {
		Level string
	} `mapstructure:"log"`

	Postgres struct {
		DSN string
	} `mapstructure:"postgres"`

	Auth struct {
		JWTSecret string `mapstructure:"jwt_secret"`
	} `mapstructure:"auth"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`
}

// Load reads the YAML config at path and overlays APP_* environment
// variables. A missing file is fine: env vars and defaults carry a bare
// deployment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()

	v.SetDefault("app.env", "dev")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.allowed_origins", "*")
	v.SetDefault("log.level", "info")
	v.SetDefault("metrics.enabled", true)

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}

	// DATABASE_URL wins when set; it is what deployments export.
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		c.Postgres.DSN = dsn
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.Auth.JWTSecret = secret
	}
	return c, nil
}
