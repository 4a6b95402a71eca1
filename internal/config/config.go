package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Log       LogConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Storage   StorageConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Printer   PrinterConfig
	Label     LabelConfig
	Backend   BackendConfig
	Billing   BillingConfig
}

type AppConfig struct {
	Name  string
	Env   string
	Port  string
	Debug bool
}

type LogConfig struct {
	Level string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	Timezone string
}

// RedisConfig configures the rendered-barcode cache. An empty Addr disables it.
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	BarcodeTTL time.Duration

	// MemoryEntries sizes the in-process cache used without Redis; 0 disables it
	MemoryEntries int
}

// StorageConfig selects where generated label documents are kept.
// Driver is "local" (Path on disk) or "gcs" (GCSBucket).
type StorageConfig struct {
	Driver             string
	Path               string
	UploadMaxSize      int64
	GCSBucket          string
	GCSCredentialsJSON string
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type RateLimitConfig struct {
	Requests int
	Duration int
}

type PrinterConfig struct {
	Type    string
	USBPath string
	Address string
	DPI     int
}

type LabelConfig struct {
	WidthMM      float64
	HeightMM     float64
	AssetTimeout time.Duration
	LogoPath     string
	// LogoHosts are the hosts per-job logo URLs may be downloaded from
	LogoHosts []string
	Currency  string
}

type BackendConfig struct {
	BaseURL  string
	Timeout  time.Duration
	APIToken string
}

type BillingConfig struct {
	// AllocationScale is the number of decimals a discount share is rounded to
	AllocationScale int32
}

func Load() *Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables: %v", err)
	}

	setDefaults()

	return &Config{
		App: AppConfig{
			Name:  viper.GetString("APP_NAME"),
			Env:   viper.GetString("APP_ENV"),
			Port:  viper.GetString("APP_PORT"),
			Debug: viper.GetBool("APP_DEBUG"),
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			SSLMode:  viper.GetString("DB_SSL_MODE"),
			Timezone: viper.GetString("DB_TIMEZONE"),
		},
		Redis: RedisConfig{
			Addr:          viper.GetString("REDIS_ADDR"),
			Password:      viper.GetString("REDIS_PASSWORD"),
			DB:            viper.GetInt("REDIS_DB"),
			BarcodeTTL:    time.Duration(viper.GetInt("BARCODE_CACHE_TTL_SECONDS")) * time.Second,
			MemoryEntries: viper.GetInt("BARCODE_CACHE_SIZE"),
		},
		Storage: StorageConfig{
			Driver:             viper.GetString("STORAGE_DRIVER"),
			Path:               viper.GetString("STORAGE_PATH"),
			UploadMaxSize:      viper.GetInt64("UPLOAD_MAX_SIZE"),
			GCSBucket:          viper.GetString("GCS_BUCKET"),
			GCSCredentialsJSON: viper.GetString("GCS_CREDENTIALS_JSON"),
		},
		CORS: CORSConfig{
			AllowedOrigins: viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods: viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders: viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: viper.GetInt("RATE_LIMIT_DURATION"),
		},
		Printer: PrinterConfig{
			Type:    viper.GetString("PRINTER_TYPE"),
			USBPath: viper.GetString("PRINTER_USB_PATH"),
			Address: viper.GetString("PRINTER_ADDRESS"),
			DPI:     viper.GetInt("PRINTER_DPI"),
		},
		Label: LabelConfig{
			WidthMM:      viper.GetFloat64("LABEL_WIDTH_MM"),
			HeightMM:     viper.GetFloat64("LABEL_HEIGHT_MM"),
			AssetTimeout: time.Duration(viper.GetInt("LABEL_ASSET_TIMEOUT_MS")) * time.Millisecond,
			LogoPath:     viper.GetString("LABEL_LOGO_PATH"),
			LogoHosts:    viper.GetStringSlice("LABEL_LOGO_HOSTS"),
			Currency:     viper.GetString("LABEL_CURRENCY"),
		},
		Backend: BackendConfig{
			BaseURL:  viper.GetString("BACKEND_BASE_URL"),
			Timeout:  time.Duration(viper.GetInt("BACKEND_TIMEOUT_SECONDS")) * time.Second,
			APIToken: viper.GetString("BACKEND_API_TOKEN"),
		},
		Billing: BillingConfig{
			AllocationScale: viper.GetInt32("BILLING_ALLOCATION_SCALE"),
		},
	}
}

func setDefaults() {
	viper.SetDefault("APP_NAME", "retailpos-api")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_DEBUG", true)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_NAME", "retailpos")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_TIMEZONE", "Asia/Kolkata")
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("BARCODE_CACHE_TTL_SECONDS", 86400)
	viper.SetDefault("BARCODE_CACHE_SIZE", 512)
	viper.SetDefault("STORAGE_DRIVER", "local")
	viper.SetDefault("STORAGE_PATH", "./storage")
	viper.SetDefault("UPLOAD_MAX_SIZE", 5242880)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("CORS_ALLOWED_HEADERS", []string{})
	viper.SetDefault("RATE_LIMIT_REQUESTS", 100)
	viper.SetDefault("RATE_LIMIT_DURATION", 60)
	viper.SetDefault("PRINTER_TYPE", "none")
	viper.SetDefault("PRINTER_DPI", 203)
	viper.SetDefault("LABEL_WIDTH_MM", 38)
	viper.SetDefault("LABEL_HEIGHT_MM", 38)
	viper.SetDefault("LABEL_ASSET_TIMEOUT_MS", 3000)
	viper.SetDefault("LABEL_CURRENCY", "Rs.")
	viper.SetDefault("BACKEND_BASE_URL", "http://localhost:8000/api")
	viper.SetDefault("BACKEND_TIMEOUT_SECONDS", 10)
	viper.SetDefault("BILLING_ALLOCATION_SCALE", 2)
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.Timezone
}
