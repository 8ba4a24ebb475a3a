package core

import (
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Debug            bool
		TestMode         bool
		Env              string // DEV (default), TEST, QA, PROD
		Build            string
		AppName          string
		SecretKey        string
		FrontendBaseURL  string
		DefaultFromEmail string
		SendgridApiKey   string
		RollbarToken     string
		DataDir          string

		Server ServerConfig
		Mirror MirrorConfig
	}

	ServerConfig struct {
		Host                           string
		Addr                           string
		SessionExpirationDelta         time.Duration
		SessionRememberExpirationDelta time.Duration
		PasswordResetTimeoutDelta      time.Duration
	}

	MirrorConfig struct {
		BaseURL        string
		ProbeInterval  time.Duration
		ProbeTimeout   time.Duration
		RequestTimeout time.Duration
	}
)

func (c *Config) FromEmailAddress() mail.Address {
	return mail.Address{Name: c.AppName, Address: c.DefaultFromEmail}
}

// NewConfig loads the app configuration from the environment;
// an optional `config/.env.<env>` file is loaded first if it exists.
func NewConfig() (*Config, error) {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Etudia")
	v.SetDefault("secretKey", "q8e2-mkd)wnb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("dataDir", "data")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.sessionExpirationDelta", 24*time.Hour)
	v.SetDefault("server.sessionRememberExpirationDelta", 30*24*time.Hour)
	v.SetDefault("server.passwordResetTimeoutDelta", 15*time.Minute)
	v.SetDefault("mirror.baseURL", "")
	v.SetDefault("mirror.probeInterval", 30*time.Second)
	v.SetDefault("mirror.probeTimeout", 3*time.Second)
	v.SetDefault("mirror.requestTimeout", 5*time.Second)

	env := os.Getenv("ENV")
	if env == "" {
		env = "DEV"
	}
	v.SetDefault("env", env)
	if env == "TEST" {
		v.SetDefault("testMode", true)
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err = godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}

	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	conf := new(Config)
	if err := v.Unmarshal(conf); err != nil {
		return nil, errors.Wrap(err, "unmarshalling config")
	}
	return conf, nil
}
