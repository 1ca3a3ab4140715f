package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env       string // Env is the current environment: local, development, production.
	DataDir   string // DataDir holds the JSON stores.
	OutputDir string // OutputDir receives the generated site.
	FeedsDir  string // FeedsDir holds the curated static feeds.
	Site      Site
	Catalog   Catalog
	Amazon    Amazon
	Ebay      Ebay
}

type Site struct {
	BaseURL     string
	Title       string
	Description string
}

type Catalog struct {
	CooldownDays          int // CooldownDays suppresses re-ingestion of recent listings.
	CooldownRetentionDays int // CooldownRetentionDays prunes the cooldown ledger.
	MinCatalogSize        int
	GuideCadenceDays      int
	ItemCount             int // ItemCount is the per-source fetch size for update runs.
}

// Amazon holds the PA-API keys. Empty keys disable the source.
type Amazon struct {
	AccessKey    string
	SecretKey    string
	AssociateTag string
}

// Ebay holds the Browse API application keys. Empty keys disable the source.
type Ebay struct {
	ClientID     string
	ClientSecret string
}

// MustLoad loads the configuration from environment variables and returns a Config struct.
func MustLoad() *Config {
	// Automatically binds environment variables to config keys
	viper.SetEnvPrefix("GG")
	viper.AutomaticEnv()

	// optional args
	viper.SetDefault("ENV", "production")
	viper.SetDefault("DATA_DIR", "data")
	viper.SetDefault("OUTPUT_DIR", "public")
	viper.SetDefault("FEEDS_DIR", "feeds")
	viper.SetDefault("SITE_BASE_URL", "https://www.grabgifts.net")
	viper.SetDefault("SITE_TITLE", "GrabGifts")
	viper.SetDefault("SITE_DESCRIPTION", "Hand-picked gift ideas, refreshed daily.")
	viper.SetDefault("COOLDOWN_DAYS", 14)
	viper.SetDefault("COOLDOWN_RETENTION_DAYS", 30)
	viper.SetDefault("MIN_CATALOG_SIZE", 50)
	viper.SetDefault("GUIDE_CADENCE_DAYS", 3)
	viper.SetDefault("ITEM_COUNT", 10)

	return &Config{
		Env:       viper.GetString("ENV"),
		DataDir:   viper.GetString("DATA_DIR"),
		OutputDir: viper.GetString("OUTPUT_DIR"),
		FeedsDir:  viper.GetString("FEEDS_DIR"),
		Site: Site{
			BaseURL:     viper.GetString("SITE_BASE_URL"),
			Title:       viper.GetString("SITE_TITLE"),
			Description: viper.GetString("SITE_DESCRIPTION"),
		},
		Catalog: Catalog{
			CooldownDays:          viper.GetInt("COOLDOWN_DAYS"),
			CooldownRetentionDays: viper.GetInt("COOLDOWN_RETENTION_DAYS"),
			MinCatalogSize:        viper.GetInt("MIN_CATALOG_SIZE"),
			GuideCadenceDays:      viper.GetInt("GUIDE_CADENCE_DAYS"),
			ItemCount:             viper.GetInt("ITEM_COUNT"),
		},
		Amazon: Amazon{
			AccessKey:    viper.GetString("AMAZON_ACCESS_KEY"),
			SecretKey:    viper.GetString("AMAZON_SECRET_KEY"),
			AssociateTag: viper.GetString("AMAZON_ASSOCIATE_TAG"),
		},
		Ebay: Ebay{
			ClientID:     viper.GetString("EBAY_CLIENT_ID"),
			ClientSecret: viper.GetString("EBAY_CLIENT_SECRET"),
		},
	}
}

// CooldownWindow converts the configured day count into a duration.
func (c Catalog) CooldownWindow() time.Duration {
	return time.Duration(c.CooldownDays) * 24 * time.Hour
}

// CooldownRetention converts the retention day count into a duration.
func (c Catalog) CooldownRetention() time.Duration {
	return time.Duration(c.CooldownRetentionDays) * 24 * time.Hour
}

// GuideCadence converts the cadence day count into a duration.
func (c Catalog) GuideCadence() time.Duration {
	return time.Duration(c.GuideCadenceDays) * 24 * time.Hour
}
