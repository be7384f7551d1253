package models

// MConfig Structure
type MConfig struct {
	Name     string         `yaml:"name"`
	Host     string         `yaml:"host"`
	Port     int            `yaml:"port"`
	LogLevel string         `yaml:"log_level"`
	Storage  MStorageConfig `yaml:"storage"`
	Network  MNetworkConfig `yaml:"network"`
	Quotes   MQuotesConfig  `yaml:"quotes"`
	Stream   MStreamConfig  `yaml:"stream"`
	Auth     MAuthConfig    `yaml:"auth"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
}

type MNetworkConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Proxies        []string `yaml:"proxies"`
	RequestTimeout int      `yaml:"timeout"`
	MaxRetries     int      `yaml:"retries"`
	UserAgent      string   `yaml:"user_agent"`
}

// MQuotesConfig configures the upstream quote providers.
type MQuotesConfig struct {
	Primary          MProviderConfig `yaml:"primary"`
	Secondary        MProviderConfig `yaml:"secondary"`
	BatchSize        int             `yaml:"batch_size"`
	BatchDelayMillis int             `yaml:"batch_delay_ms"`
}

type MProviderConfig struct {
	Name   string `yaml:"name"`
	APIKey string `yaml:"api_key"` // Optional
}

// MStreamConfig configures the subscription registry and update scheduler.
type MStreamConfig struct {
	UpdateIntervalSeconds   int `yaml:"update_interval_seconds"`
	MaxSymbolsPerConnection int `yaml:"max_symbols_per_connection"`
	ClientSendBufferSize    int `yaml:"client_send_buffer_size"`
}

type MAuthConfig struct {
	Secret string `yaml:"secret"`
}
