package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

const configFile = "bank_config.json"

var cfg Config
var home = os.Getenv("HOME")

func getViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("bank_config")
	v.SetConfigType("json")
	v.AddConfigPath(".")                 // config file reading order starts with current working directory
	v.AddConfigPath("$HOME/.lfmsh-bank") // then home directory
	v.AddConfigPath("/etc/lfmsh-bank/")  // finally /etc/lfmsh-bank
	v.SetEnvPrefix("BANK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaultConfig() *viper.Viper {
	v := getViper()
	dataDir := filepath.Join(home, ".lfmsh-bank")
	v.SetDefault("general.data_dir", dataDir)
	v.SetDefault("general.debug", false)
	v.SetDefault("client.api_url", "http://localhost:8000/api/v1/")
	v.SetDefault("client.credentials_path", filepath.Join(dataDir, "credentials.json"))
	v.SetDefault("client.timeout_seconds", 30)
	v.SetDefault("server.listen", "127.0.0.1:8000")
	v.SetDefault("server.database_path", filepath.Join(dataDir, "bank.db"))
	v.SetDefault("server.media_dir", filepath.Join(dataDir, "media"))
	v.SetDefault("server.jwt_secret", "secret_key_for_dev_only")
	v.SetDefault("server.access_token_minutes", 60)
	v.SetDefault("server.refresh_token_days", 30)
	v.SetDefault("server.cors_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.test_mode", false)
	v.SetDefault("server.default_password", "r")
	v.SetDefault("server.daily_tax_cron", "")
	v.SetDefault("server.otlp_endpoint", "")
	return v
}

func LoadConfig() {
	paths := []string{
		".",
		filepath.Join(home, ".lfmsh-bank"),
		"/etc/lfmsh-bank",
	}
	v := setDefaultConfig()

	config, err := findConfig(paths, configFile)
	if err != nil {
		v.Unmarshal(&cfg)
		return
	}

	modifiedConfig := removeComments(config)
	if err = v.ReadConfig(bytes.NewBuffer(modifiedConfig)); err != nil { // Viper only reads buffer, keeping comments in original config
		setDefaultConfig().Unmarshal(&cfg)
		return
	}

	if err = v.Unmarshal(&cfg); err != nil {
		setDefaultConfig().Unmarshal(&cfg)
	}
}

// SetConfig overrides a single key on top of the loaded configuration.
func SetConfig(key string, value interface{}) {
	v := setDefaultConfig()
	if config, err := findConfig([]string{".", filepath.Join(home, ".lfmsh-bank"), "/etc/lfmsh-bank"}, configFile); err == nil {
		_ = v.ReadConfig(bytes.NewBuffer(removeComments(config)))
	}
	v.Set(key, value)
	if err := v.Unmarshal(&cfg); err != nil {
		setDefaultConfig().Unmarshal(&cfg)
	}
}

func GetConfig() *Config {
	if reflect.DeepEqual(cfg, Config{}) {
		LoadConfig()
	}
	return &cfg
}

func findConfig(paths []string, filename string) ([]byte, error) {
	for _, path := range paths {
		fullPath := filepath.Join(path, filename)
		_, err := os.Stat(fullPath)
		if err == nil {
			config, err := os.ReadFile(fullPath)
			if err == nil {
				return config, nil
			} else {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("file not found in any of the paths")
}

func removeComments(configBytes []byte) []byte {
	re := regexp.MustCompile(`(?m)^\s*//.*$`) // whole-line comments only, URLs keep their '//'
	result := re.ReplaceAll(configBytes, nil)
	return result
}
