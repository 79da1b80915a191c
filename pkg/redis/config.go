package redis

import "time"

// Config holds the Redis connection and draft storage settings. Fields are
// populated from the environment; load it with a prefix such as ONBOARDING_
// to namespace the variables.
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL,required" envDefault:"redis://localhost:6379/0"` // redis://:password@localhost:6379/0
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
	ScanBatchSize  int           `env:"REDIS_SCAN_BATCH_SIZE" envDefault:"1000"`
	// KeyExpiration lets Redis reclaim abandoned drafts on its own. Zero keeps keys until deleted.
	KeyExpiration time.Duration `env:"REDIS_KEY_EXPIRATION" envDefault:"0s"`
}
