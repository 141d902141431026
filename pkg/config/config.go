package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	LDAP        LDAPConfig
	CORS        CORSConfig
	Log         LogConfig
	Dashboard   DashboardConfig
	Exports     ExportsConfig
	Photos      PhotosConfig
	Inspections InspectionsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// LDAPConfig describes how accounts are looked up in the directory.
type LDAPConfig struct {
	URL                string
	BindDN             string
	BindPassword       string
	BaseDN             string
	UserFilter         string
	UsernameAttr       string
	EmailAttr          string
	FirstNameAttr      string
	LastNameAttr       string
	DisplayNameAttr    string
	GroupAttr          string
	StartTLS           bool
	InsecureSkipVerify bool
	Timeout            time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// DashboardConfig governs dashboard exposure and cache tuning.
type DashboardConfig struct {
	Enabled       bool
	CacheTTL      time.Duration
	DueWindowDays int
	RecentDays    int
}

// ExportsConfig limits register exports.
type ExportsConfig struct {
	Enabled bool
	MaxRows int
}

// PhotosConfig controls storage of inspection item photos.
type PhotosConfig struct {
	StorageDir       string
	SignedURLSecret  string
	SignedURLTTL     time.Duration
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
}

// InspectionsConfig tunes the inspection workflow and its access groups.
type InspectionsConfig struct {
	AutoCalculateResult bool
	AdminGroups         []string
	InspectorGroups     []string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 8*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.LDAP = LDAPConfig{
		URL:                v.GetString("LDAP_URL"),
		BindDN:             v.GetString("LDAP_BIND_DN"),
		BindPassword:       v.GetString("LDAP_BIND_PASSWORD"),
		BaseDN:             v.GetString("LDAP_BASE_DN"),
		UserFilter:         v.GetString("LDAP_USER_FILTER"),
		UsernameAttr:       v.GetString("LDAP_ATTR_USERNAME"),
		EmailAttr:          v.GetString("LDAP_ATTR_EMAIL"),
		FirstNameAttr:      v.GetString("LDAP_ATTR_FIRST_NAME"),
		LastNameAttr:       v.GetString("LDAP_ATTR_LAST_NAME"),
		DisplayNameAttr:    v.GetString("LDAP_ATTR_DISPLAY_NAME"),
		GroupAttr:          v.GetString("LDAP_ATTR_GROUPS"),
		StartTLS:           v.GetBool("LDAP_START_TLS"),
		InsecureSkipVerify: v.GetBool("LDAP_INSECURE_SKIP_VERIFY"),
		Timeout:            parseDuration(v.GetString("LDAP_TIMEOUT"), 5*time.Second),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Dashboard = DashboardConfig{
		Enabled:       v.GetBool("ENABLE_DASHBOARD"),
		CacheTTL:      parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), 5*time.Minute),
		DueWindowDays: v.GetInt("DASHBOARD_DUE_WINDOW_DAYS"),
		RecentDays:    v.GetInt("DASHBOARD_RECENT_DAYS"),
	}

	cfg.Exports = ExportsConfig{
		Enabled: v.GetBool("ENABLE_EXPORTS"),
		MaxRows: v.GetInt("EXPORTS_MAX_ROWS"),
	}

	maxPhotoSize := v.GetInt64("PHOTOS_MAX_FILE_SIZE")
	if maxPhotoSize <= 0 {
		maxPhotoSize = 8 * 1024 * 1024
	}
	cfg.Photos = PhotosConfig{
		StorageDir:       v.GetString("PHOTOS_STORAGE_DIR"),
		SignedURLSecret:  v.GetString("PHOTOS_SIGNED_URL_SECRET"),
		SignedURLTTL:     parseDuration(v.GetString("PHOTOS_SIGNED_URL_TTL"), 30*time.Minute),
		MaxFileSizeBytes: maxPhotoSize,
		AllowedMIMEs:     splitAndTrim(v.GetString("PHOTOS_ALLOWED_MIME_TYPES")),
	}

	cfg.Inspections = InspectionsConfig{
		AutoCalculateResult: v.GetBool("INSPECTIONS_AUTO_RESULT"),
		AdminGroups:         splitAndTrim(v.GetString("ADMIN_GROUPS")),
		InspectorGroups:     splitAndTrim(v.GetString("INSPECTOR_GROUPS")),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "leiterpruefung")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "8h")
	v.SetDefault("JWT_ISSUER", "ladder-inspection-api")

	v.SetDefault("LDAP_URL", "ldap://localhost:389")
	v.SetDefault("LDAP_BIND_DN", "")
	v.SetDefault("LDAP_BIND_PASSWORD", "")
	v.SetDefault("LDAP_BASE_DN", "dc=example,dc=org")
	v.SetDefault("LDAP_USER_FILTER", "(&(objectClass=person)(uid=%s))")
	v.SetDefault("LDAP_ATTR_USERNAME", "uid")
	v.SetDefault("LDAP_ATTR_EMAIL", "mail")
	v.SetDefault("LDAP_ATTR_FIRST_NAME", "givenName")
	v.SetDefault("LDAP_ATTR_LAST_NAME", "sn")
	v.SetDefault("LDAP_ATTR_DISPLAY_NAME", "displayName")
	v.SetDefault("LDAP_ATTR_GROUPS", "memberOf")
	v.SetDefault("LDAP_START_TLS", false)
	v.SetDefault("LDAP_INSECURE_SKIP_VERIFY", false)
	v.SetDefault("LDAP_TIMEOUT", "5s")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_DASHBOARD", true)
	v.SetDefault("DASHBOARD_CACHE_TTL", "5m")
	v.SetDefault("DASHBOARD_DUE_WINDOW_DAYS", 30)
	v.SetDefault("DASHBOARD_RECENT_DAYS", 30)

	v.SetDefault("ENABLE_EXPORTS", true)
	v.SetDefault("EXPORTS_MAX_ROWS", 5000)

	v.SetDefault("PHOTOS_STORAGE_DIR", "./photos")
	v.SetDefault("PHOTOS_SIGNED_URL_SECRET", "dev_photos_secret")
	v.SetDefault("PHOTOS_SIGNED_URL_TTL", "30m")
	v.SetDefault("PHOTOS_MAX_FILE_SIZE", 8*1024*1024)
	v.SetDefault("PHOTOS_ALLOWED_MIME_TYPES", "image/jpeg,image/png,image/webp")

	v.SetDefault("INSPECTIONS_AUTO_RESULT", true)
	v.SetDefault("ADMIN_GROUPS", "leitern-admin")
	v.SetDefault("INSPECTOR_GROUPS", "leitern-pruefer,leitern-admin")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

// isMissingFile reports a missing .env, which SetConfigFile surfaces as a
// plain path error rather than ConfigFileNotFoundError.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
