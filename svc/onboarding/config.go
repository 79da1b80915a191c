package onboarding

import (
	"fmt"
	"time"

	"github.com/rockethooks/rockethooks-app-sub001/pkg/config"
	"github.com/rockethooks/rockethooks-app-sub001/pkg/draft"
)

// Storage backends understood by OpenStorage.
const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StorageSQLite   = "sqlite"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
	StorageMongo    = "mongo"
)

// Config is read from ONBOARDING_* environment variables. Backend specific
// settings (redis.Config, pg.Config, mongo.Config) are loaded with the
// ONBOARDING_ prefix only when that backend is selected.
type Config struct {
	DraftPrefix      string        `env:"ONBOARDING_DRAFT_PREFIX" envDefault:"onboarding_draft_"`
	DraftVersion     string        `env:"ONBOARDING_DRAFT_VERSION" envDefault:"1.0.0"`
	DraftTTL         time.Duration `env:"ONBOARDING_DRAFT_TTL" envDefault:"168h"`
	AutosaveDebounce time.Duration `env:"ONBOARDING_AUTOSAVE_DEBOUNCE" envDefault:"1s"`

	Storage    string `env:"ONBOARDING_STORAGE" envDefault:"memory"`
	FileDir    string `env:"ONBOARDING_FILE_DIR" envDefault:".onboarding/drafts"`
	SQLitePath string `env:"ONBOARDING_SQLITE_PATH" envDefault:"onboarding.db"`

	PolicyFile   string        `env:"ONBOARDING_POLICY_FILE"`
	RegistrySize int           `env:"ONBOARDING_REGISTRY_SIZE" envDefault:"1024"`
	GuardTimeout time.Duration `env:"ONBOARDING_GUARD_TIMEOUT" envDefault:"5s"`
	UserHeader   string        `env:"ONBOARDING_USER_HEADER" envDefault:"X-User-ID"`
}

// LoadConfig parses Config from the environment and checks it.
func LoadConfig(opts ...config.Option) (Config, error) {
	var cfg Config
	if err := config.Load(&cfg, opts...); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Storage {
	case StorageMemory, StorageFile, StorageSQLite, StorageRedis, StoragePostgres, StorageMongo:
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedStorage, c.Storage)
	}
	if c.DraftTTL <= 0 {
		return fmt.Errorf("%w: ONBOARDING_DRAFT_TTL must be positive", config.ErrParsingConfig)
	}
	if c.RegistrySize <= 0 {
		return fmt.Errorf("%w: ONBOARDING_REGISTRY_SIZE must be positive", config.ErrParsingConfig)
	}
	return nil
}

// StoreOptions converts the draft settings into draft.Store options.
func (c Config) StoreOptions() []draft.Option {
	return []draft.Option{
		draft.WithPrefix(c.DraftPrefix),
		draft.WithVersion(c.DraftVersion),
		draft.WithTTL(c.DraftTTL),
	}
}
