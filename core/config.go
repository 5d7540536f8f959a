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

// Password policies
const (
	PasswordPolicyLegacy = "legacy" // min length only
	PasswordPolicyStrict = "strict"
)

type (
	Config struct {
		Env      string
		Build    string
		Debug    bool
		TestMode bool
		AppName  string

		SecretKey          string
		JWTExpirationDelta time.Duration

		DataFile        string // the backing CSV file
		PasswordMinLen  int
		PasswordHashing bool
		PasswordPolicy  string

		RollbarToken string
		Server       ServerConfig
	}

	ServerConfig struct {
		Host            string
		Address         string
		DebugHost       string
		ShutdownTimeout time.Duration
		DisableReqLogs  bool
	}
)

// NewConfig loads the configuration from the environment.
// `config/.env.<env>` is loaded first when it exists in the working directory.
func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("build", "develop")
	conf.SetDefault("appName", "Dropout Predictor")
	conf.SetDefault("secretKey", "w9^kq2!c@v7z$0pmr+3e_ldx5(h8)b1&nf6y#t4o-ujs")
	conf.SetDefault("jwtExpirationDelta", 8*time.Hour)
	conf.SetDefault("dataFile", "students.csv")
	conf.SetDefault("passwordMinLen", 5)
	conf.SetDefault("passwordHashing", false)
	conf.SetDefault("passwordPolicy", PasswordPolicyLegacy)
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("server.host", "localhost")
	conf.SetDefault("server.address", ":8000")
	conf.SetDefault("server.debugHost", ":4000")
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("server.disableReqLogs", false)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	if wd, err := os.Getwd(); err == nil {
		dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
		if _, err := os.Stat(dotEnvPath); err == nil {
			if err := godotenv.Load(dotEnvPath); err != nil {
				log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
			}
		} else if !os.IsNotExist(err) {
			log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
		}
	}
	conf.AutomaticEnv()

	return &Config{
		Env:                env,
		Build:              conf.GetString("build"),
		Debug:              conf.GetBool("debug"),
		TestMode:           conf.GetBool("testMode"),
		AppName:            conf.GetString("appName"),
		SecretKey:          conf.GetString("secretKey"),
		JWTExpirationDelta: conf.GetDuration("jwtExpirationDelta"),
		DataFile:           conf.GetString("dataFile"),
		PasswordMinLen:     conf.GetInt("passwordMinLen"),
		PasswordHashing:    conf.GetBool("passwordHashing"),
		PasswordPolicy:     strings.ToLower(conf.GetString("passwordPolicy")),
		RollbarToken:       conf.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:            conf.GetString("server.host"),
			Address:         conf.GetString("server.address"),
			DebugHost:       conf.GetString("server.debugHost"),
			ShutdownTimeout: conf.GetDuration("server.shutdownTimeout"),
			DisableReqLogs:  conf.GetBool("server.disableReqLogs"),
		},
	}
}
