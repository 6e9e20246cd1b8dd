package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=ddt port=5432 sslmode=disable"

type Config struct {
	HTTPPort    string
	DatabaseDSN string
	JWTSecret   string
	CORSOrigins string

	LogLevel  string
	LogFormat string // json | console
	TimeZone  string // default year/month for numbering

	DefaultLogoPath string // fallback when the sender has no logo of its own
	PDFOutputDir    string // optional copy of every rendered PDF

	NumberingMaxRetries int

	Archive ArchiveConfig
}

// ArchiveConfig: optional S3-compatible bucket for rendered documents
type ArchiveConfig struct {
	Bucket          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

func (a ArchiveConfig) Enabled() bool {
	return a.Bucket != ""
}

func Load() *Config {
	v := viper.New()
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("DATABASE_DSN", defaultDSN)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("TIMEZONE", "Europe/Rome")
	v.SetDefault("DEFAULT_LOGO_PATH", "./static/images/logo.png")
	v.SetDefault("PDF_OUTPUT_DIR", "")
	v.SetDefault("NUMBERING_MAX_RETRIES", 3)
	v.SetDefault("ARCHIVE_S3_BUCKET", "")
	v.SetDefault("ARCHIVE_S3_ENDPOINT", "")
	v.SetDefault("ARCHIVE_S3_REGION", "eu-south-1")
	v.SetDefault("ARCHIVE_S3_ACCESS_KEY_ID", "")
	v.SetDefault("ARCHIVE_S3_SECRET_ACCESS_KEY", "")
	v.SetDefault("ARCHIVE_S3_PREFIX", "ddt")
	v.AutomaticEnv()

	if file := v.GetString("DDT_CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			log.Fatalf("[FATAL] impossibile leggere il file di configurazione (%s): %v", file, err)
		}
	}

	cfg := &Config{
		HTTPPort:            v.GetString("HTTP_PORT"),
		DatabaseDSN:         v.GetString("DATABASE_DSN"),
		JWTSecret:           v.GetString("JWT_SECRET"),
		CORSOrigins:         v.GetString("CORS_ALLOWED_ORIGINS"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		LogFormat:           strings.ToLower(v.GetString("LOG_FORMAT")),
		TimeZone:            v.GetString("TIMEZONE"),
		DefaultLogoPath:     v.GetString("DEFAULT_LOGO_PATH"),
		PDFOutputDir:        v.GetString("PDF_OUTPUT_DIR"),
		NumberingMaxRetries: v.GetInt("NUMBERING_MAX_RETRIES"),
		Archive: ArchiveConfig{
			Bucket:          v.GetString("ARCHIVE_S3_BUCKET"),
			Endpoint:        v.GetString("ARCHIVE_S3_ENDPOINT"),
			Region:          v.GetString("ARCHIVE_S3_REGION"),
			AccessKeyID:     v.GetString("ARCHIVE_S3_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("ARCHIVE_S3_SECRET_ACCESS_KEY"),
			Prefix:          v.GetString("ARCHIVE_S3_PREFIX"),
		},
	}

	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET non impostato: obbligatorio.")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET deve avere almeno 32 caratteri.")
	}
	if cfg.NumberingMaxRetries < 1 {
		cfg.NumberingMaxRetries = 1
	}
	if cfg.DatabaseDSN == defaultDSN {
		log.Println("[WARN] DATABASE_DSN usa il valore predefinito, impostare la connessione Postgres di produzione.")
	}
	if cfg.CORSOrigins == "http://localhost:5173" {
		log.Println("[WARN] CORS_ALLOWED_ORIGINS usa il valore predefinito.")
	}

	return cfg
}
