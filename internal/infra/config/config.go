package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DatabaseURL string

	RedisAddress  string
	RedisPassword string
	RedisDB       int

	HTTPAddress      string
	CookieDomain     string
	AllowedOrigins   []string
	AllowCredentials bool

	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	JWTIssuer          string

	PasswordPepper string

	S3Region     string
	S3Bucket     string
	S3Endpoint   string
	S3AccessKey  string
	S3SecretKey  string
	MediaBaseURL string

	TmpUploadDir    string
	ChannelCacheTTL time.Duration
}

var required = []string{
	"DATABASE_URL",
	"REDIS_ADDRESS",
	"ACCESS_TOKEN_SECRET",
	"REFRESH_TOKEN_SECRET",
	"ACCESS_TOKEN_TTL",
	"REFRESH_TOKEN_TTL",
	"JWT_ISSUER",
	"PASSWORD_PEPPER",
	"S3_REGION",
	"S3_BUCKET",
	"MEDIA_BASE_URL",
}

func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDRESS", ":8080")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("TMP_UPLOAD_DIR", "/tmp")
	v.SetDefault("CHANNEL_CACHE_TTL", "30s")
	v.SetDefault("ALLOW_CREDENTIALS", true)

	for _, key := range required {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
		if v.GetString(key) == "" {
			return nil, fmt.Errorf("missing required config key %s", key)
		}
	}

	accessTTL := v.GetDuration("ACCESS_TOKEN_TTL")
	refreshTTL := v.GetDuration("REFRESH_TOKEN_TTL")
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, fmt.Errorf("token TTLs must be positive durations")
	}

	return &Config{
		DatabaseURL: v.GetString("DATABASE_URL"),

		RedisAddress:  v.GetString("REDIS_ADDRESS"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),

		HTTPAddress:      v.GetString("HTTP_ADDRESS"),
		CookieDomain:     v.GetString("COOKIE_DOMAIN"),
		AllowedOrigins:   v.GetStringSlice("ALLOWED_ORIGINS"),
		AllowCredentials: v.GetBool("ALLOW_CREDENTIALS"),

		AccessTokenSecret:  v.GetString("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret: v.GetString("REFRESH_TOKEN_SECRET"),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
		JWTIssuer:          v.GetString("JWT_ISSUER"),

		PasswordPepper: v.GetString("PASSWORD_PEPPER"),

		S3Region:     v.GetString("S3_REGION"),
		S3Bucket:     v.GetString("S3_BUCKET"),
		S3Endpoint:   v.GetString("S3_ENDPOINT"),
		S3AccessKey:  v.GetString("S3_ACCESS_KEY"),
		S3SecretKey:  v.GetString("S3_SECRET_KEY"),
		MediaBaseURL: v.GetString("MEDIA_BASE_URL"),

		TmpUploadDir:    v.GetString("TMP_UPLOAD_DIR"),
		ChannelCacheTTL: v.GetDuration("CHANNEL_CACHE_TTL"),
	}, nil
}
