package config

type Config struct {
	General `mapstructure:"general"`
	Client  `mapstructure:"client"`
	Server  `mapstructure:"server"`
}

type General struct {
	DataDir string `mapstructure:"data_dir"`
	Debug   bool   `mapstructure:"debug"`
}

// Client holds settings used by the CLI when it talks to the bank API.
type Client struct {
	APIURL          string `mapstructure:"api_url"`
	CredentialsPath string `mapstructure:"credentials_path"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
}

// Server holds settings of the development ledger started by `bank serve`.
type Server struct {
	Listen             string   `mapstructure:"listen"`
	DatabasePath       string   `mapstructure:"database_path"`
	MediaDir           string   `mapstructure:"media_dir"`
	JWTSecret          string   `mapstructure:"jwt_secret"`
	AccessTokenMinutes int      `mapstructure:"access_token_minutes"`
	RefreshTokenDays   int      `mapstructure:"refresh_token_days"`
	CorsOrigins        []string `mapstructure:"cors_origins"`
	TestMode           bool     `mapstructure:"test_mode"`
	DefaultPassword    string   `mapstructure:"default_password"`
	DailyTaxCron       string   `mapstructure:"daily_tax_cron"` // empty disables the scheduled tax
	OTLPEndpoint       string   `mapstructure:"otlp_endpoint"`  // empty disables trace export
}
