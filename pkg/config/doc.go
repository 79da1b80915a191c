// Package config loads typed configuration from environment variables.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11:
//
//   - The default .env file in the working directory is read once, if present.
//   - LoadEnv reads additional .env files without overriding existing variables.
//   - Load parses the environment into any struct using env tags and caches
//     the result per type and prefix, so repeated calls are cheap.
//   - WithPrefix lets one struct be reused under several namespaces, for
//     example a redis.Config loaded as ONBOARDING_REDIS_*.
//   - ResetCache drops cached values, which is handy in tests.
//
// # Usage
//
//	type ServerConfig struct {
//		Addr string `env:"ONBOARDING_HTTP_ADDR" envDefault:":8080"`
//	}
//
//	var cfg ServerConfig
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
// # Errors
//
// Parsing failures wrap ErrParsingConfig, a nil destination yields
// ErrNilPointer and unreadable env files yield ErrLoadingEnvFile. Failed loads
// are not cached.
package config
