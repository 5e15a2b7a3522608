package app

import (
	"time"

	"github.com/caelexhq/caelex-backend/internal/pkg/envutil"
	"github.com/caelexhq/caelex-backend/internal/pkg/logger"
	"github.com/caelexhq/caelex-backend/internal/temporalx"
)

type Config struct {
	Port           string
	JWTSecretKey   string
	AccessTokenTTL time.Duration
	Temporal       temporalx.Config
}

func LoadConfig(log *logger.Logger) Config {
	port := envutil.GetEnv("PORT", "8080", log)
	jwtSecretKey := envutil.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTLSeconds := envutil.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	return Config{
		Port:           port,
		JWTSecretKey:   jwtSecretKey,
		AccessTokenTTL: time.Duration(accessTokenTTLSeconds) * time.Second,
		Temporal:       temporalx.LoadConfig(),
	}
}
