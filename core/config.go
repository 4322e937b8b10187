package core

import (
	"fmt"
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var Conf *Config

func init() {
	Conf = NewConfig()
}

type (
	ServerConfig struct {
		Host                      string
		Address                   string
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		ShutdownTimeout           time.Duration
		AllowedOrigins            []string
	}

	DatabaseConfig struct {
		Engine        string // postgres | memory
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	RedisConfig struct {
		Address  string
		Password string
		DB       int
	}

	StorageConfig struct {
		Driver        string // s3 | disk
		Bucket        string
		Endpoint      string
		Region        string
		AccessKey     string
		SecretKey     string
		PublicBaseURL string
		MediaDir      string
		MaxImageWidth int
	}

	SessionConfig struct {
		Driver string // file | redis
		Path   string
		Key    string
	}

	Config struct {
		Env                           string
		Build                         string
		Debug                         bool
		TestMode                      bool
		AppName                       string
		SecretKey                     string
		WorkDir                       string
		FrontendBaseURL               string
		APIBaseURL                    string
		PasswordResetTimeoutDelta     time.Duration
		EmailVerificationTimeoutDelta time.Duration
		VerificationPollInterval      time.Duration
		StarDustPointsPerQuestion     int
		RollbarToken                  string
		SendgridApiKey                string

		Server   ServerConfig
		Database DatabaseConfig
		Redis    RedisConfig
		Storage  StorageConfig
		Session  SessionConfig

		defaultFromEmail string
	}
)

// NewConfig loads the configuration from defaults, `config/.env.<env>` (if it exists) and the environment.
// Environment variables are prefixed with the uppercase ENV name, eg. `DEV_SECRETKEY`, `PROD_DATABASE_HOST`.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "dev")
	v.SetDefault("appName", "Doubtroom")
	v.SetDefault("secretKey", "q8@-wer)3nb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("frontendBaseURL", "http://localhost:3001")
	v.SetDefault("apiBaseURL", "http://localhost:5000/api")
	v.SetDefault("defaultFromEmail", "Doubtroom <noreply@localhost>")
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)
	v.SetDefault("emailVerificationTimeoutDelta", 15*time.Minute)
	v.SetDefault("verificationPollInterval", 3*time.Second)
	v.SetDefault("starDustPointsPerQuestion", 10)
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":5000")
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 30*24*time.Hour)
	v.SetDefault("server.shutdownTimeout", 10*time.Second)
	v.SetDefault("server.allowedOrigins", []string{"https://doubtroom.vercel.app", "http://localhost:3001"})

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "doubtroom")
	v.SetDefault("database.user", "doubtroom")
	v.SetDefault("database.password", "doubtroom")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "postgres")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.driver", "disk")
	v.SetDefault("storage.bucket", "doubtroom")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.region", "auto")
	v.SetDefault("storage.accessKey", "")
	v.SetDefault("storage.secretKey", "")
	v.SetDefault("storage.publicBaseURL", "http://localhost:5000/media")
	v.SetDefault("storage.mediaDir", "media")
	v.SetDefault("storage.maxImageWidth", 1280)

	v.SetDefault("session.driver", "file")
	v.SetDefault("session.path", "")
	v.SetDefault("session.key", "doubtroom:session:default")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	workDir := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:                           env,
		Build:                         v.GetString("build"),
		Debug:                         v.GetBool("debug"),
		TestMode:                      v.GetBool("testMode"),
		AppName:                       v.GetString("appName"),
		SecretKey:                     v.GetString("secretKey"),
		WorkDir:                       workDir,
		FrontendBaseURL:               v.GetString("frontendBaseURL"),
		APIBaseURL:                    v.GetString("apiBaseURL"),
		PasswordResetTimeoutDelta:     v.GetDuration("passwordResetTimeoutDelta"),
		EmailVerificationTimeoutDelta: v.GetDuration("emailVerificationTimeoutDelta"),
		VerificationPollInterval:      v.GetDuration("verificationPollInterval"),
		StarDustPointsPerQuestion:     v.GetInt("starDustPointsPerQuestion"),
		RollbarToken:                  v.GetString("rollbarToken"),
		SendgridApiKey:                v.GetString("sendgridApiKey"),
		defaultFromEmail:              v.GetString("defaultFromEmail"),
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Address:                   v.GetString("server.address"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			AllowedOrigins:            v.GetStringSlice("server.allowedOrigins"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Storage: StorageConfig{
			Driver:        v.GetString("storage.driver"),
			Bucket:        v.GetString("storage.bucket"),
			Endpoint:      v.GetString("storage.endpoint"),
			Region:        v.GetString("storage.region"),
			AccessKey:     v.GetString("storage.accessKey"),
			SecretKey:     v.GetString("storage.secretKey"),
			PublicBaseURL: v.GetString("storage.publicBaseURL"),
			MediaDir:      v.GetString("storage.mediaDir"),
			MaxImageWidth: v.GetInt("storage.maxImageWidth"),
		},
		Session: SessionConfig{
			Driver: v.GetString("session.driver"),
			Path:   v.GetString("session.path"),
			Key:    v.GetString("session.key"),
		},
	}
}

func (c *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(c.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: c.AppName, Address: c.defaultFromEmail}
	}
	return *addr
}

func (dc DatabaseConfig) Address() string {
	return net.JoinHostPort(dc.Host, dc.Port)
}

func (sc SessionConfig) FilePath() string {
	if sc.Path != "" {
		return sc.Path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".doubtroom", "session.json")
}

func (c *Config) String() string {
	return fmt.Sprintf("%s[%s] build=%s debug=%t db=%s", c.AppName, c.Env, c.Build, c.Debug, c.Database.Engine)
}
