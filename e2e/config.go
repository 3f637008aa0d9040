package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_DOCSTORE_ADDR is the gRPC address of a running docstore, the suite is skipped when empty
	DocstoreAddr string `envconfig:"E2E_DOCSTORE_ADDR"`
	ProjectID    string `envconfig:"E2E_PROJECT_ID" default:"wall"`
	// E2E_DEBUG_JSON allows dumping full gRPC request/response bodies as JSON
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
