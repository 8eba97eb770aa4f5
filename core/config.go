package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env      string
	Debug    bool
	TestMode bool
	AppName  string

	SecretKey []byte
	Build     string
	WorkDir   string

	RollbarToken string

	Server struct {
		Host                      string
		Port                      string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	Database struct {
		Engine        string
		Name          string
		Host          string
		Port          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	PasswordResetTimeoutDelta time.Duration

	Reminder struct {
		// CronSecret guards the scheduled-trigger endpoint; callers must
		// present it as a bearer token.
		CronSecret string
		// CronSpec is the schedule of the auto-send job.
		CronSpec string
		// CountryCode is prepended to phone numbers that lack it.
		CountryCode     string
		DefaultTemplate string
		DefaultLeadDays int
	}
}

func (c *Config) IsProd() bool { return c.Env == "PROD" }

func (c *Config) ServerAddress() string   { return c.Server.Host + ":" + c.Server.Port }
func (c *Config) DatabaseAddress() string { return c.Database.Host + ":" + c.Database.Port }

func NewConfig(build string) (*Config, error) {
	conf := viper.New()
	conf.SetTypeByDefaultValue(true)

	// defaults
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "ProClass")
	conf.SetDefault("secretKey", "f#+2yp0b$qfn&1q2myp8^x_e4=dqn8weyhr3&^)s5&(2q3vn-a")
	conf.SetDefault("serverHost", "0.0.0.0")
	conf.SetDefault("serverPort", "8000")
	conf.SetDefault("shutdownTimeout", 5*time.Second)
	conf.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	conf.SetDefault("jwtRefreshExpirationDelta", 4*time.Hour)
	conf.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)
	conf.SetDefault("dbEngine", "postgres")
	conf.SetDefault("dbName", "proclass")
	conf.SetDefault("dbHost", "localhost")
	conf.SetDefault("dbPort", "5432")
	conf.SetDefault("dbUser", "proclass")
	conf.SetDefault("dbPassword", "")
	conf.SetDefault("dbAdminUser", "")
	conf.SetDefault("dbAdminPassword", "")
	conf.SetDefault("dbDisableTLS", true)
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("reminderCronSecret", "")
	conf.SetDefault("reminderCronSpec", "0 9 * * *") // every day at 09:00
	conf.SetDefault("reminderCountryCode", "55")
	conf.SetDefault("reminderLeadDays", 3)
	conf.SetDefault(
		"reminderTemplate",
		"Olá {aluno}! Lembrete: sua mensalidade de R$ {valor} vence no dia {vencimento}.",
	)

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	conf.SetDefault("testMode", env == "TEST")
	conf.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	conf.AutomaticEnv()

	c := new(Config)
	c.Env = env
	c.Debug = conf.GetBool("debug")
	c.TestMode = conf.GetBool("testMode")
	c.AppName = conf.GetString("appName")
	c.SecretKey = []byte(conf.GetString("secretKey"))
	c.Build = build
	c.WorkDir = Getwd()
	c.RollbarToken = conf.GetString("rollbarToken")
	c.Server.Host = conf.GetString("serverHost")
	c.Server.Port = conf.GetString("serverPort")
	c.Server.ShutdownTimeout = conf.GetDuration("shutdownTimeout")
	c.Server.JWTExpirationDelta = conf.GetDuration("jwtExpirationDelta")
	c.Server.JWTRefreshExpirationDelta = conf.GetDuration("jwtRefreshExpirationDelta")
	c.Database.Engine = conf.GetString("dbEngine")
	c.Database.Name = conf.GetString("dbName")
	c.Database.Host = conf.GetString("dbHost")
	c.Database.Port = conf.GetString("dbPort")
	c.Database.User = conf.GetString("dbUser")
	c.Database.Password = conf.GetString("dbPassword")
	c.Database.AdminUser = conf.GetString("dbAdminUser")
	c.Database.AdminPassword = conf.GetString("dbAdminPassword")
	c.Database.DisableTLS = conf.GetBool("dbDisableTLS")
	c.PasswordResetTimeoutDelta = conf.GetDuration("passwordResetTimeoutDelta")
	c.Reminder.CronSecret = conf.GetString("reminderCronSecret")
	c.Reminder.CronSpec = conf.GetString("reminderCronSpec")
	c.Reminder.CountryCode = conf.GetString("reminderCountryCode")
	c.Reminder.DefaultTemplate = conf.GetString("reminderTemplate")
	c.Reminder.DefaultLeadDays = conf.GetInt("reminderLeadDays")
	return c, nil
}

// NewTestConfig returns a Config suitable for unit tests: fixed values, no env lookups.
func NewTestConfig() *Config {
	c := new(Config)
	c.Env = "TEST"
	c.TestMode = true
	c.AppName = "ProClass"
	c.SecretKey = []byte("secret")
	c.Server.JWTExpirationDelta = 10 * time.Minute
	c.Server.JWTRefreshExpirationDelta = 4 * time.Hour
	c.PasswordResetTimeoutDelta = 3 * 24 * time.Hour
	c.Reminder.CronSecret = "cron-secret"
	c.Reminder.CountryCode = "55"
	c.Reminder.DefaultTemplate = "Olá {aluno}! Lembrete: sua mensalidade de R$ {valor} vence no dia {vencimento}."
	c.Reminder.DefaultLeadDays = 3
	return c
}

// Getwd tries to find the project root, the nearest parent holding a go.mod.
// go-test changes the working directory to the test package being run during tests...
// see: https://stackoverflow.com/questions/23847003/golang-tests-and-working-directory
func Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	currDir := wd
	for {
		if _, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == string(os.PathSeparator) || newDir == currDir {
			return wd
		}
		currDir = newDir
	}
}
