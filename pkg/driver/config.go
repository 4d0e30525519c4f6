package driver

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/scpi-protocol/scpi-go/pkg/log"
	"github.com/scpi-protocol/scpi-go/pkg/scpi"
	"github.com/scpi-protocol/scpi-go/pkg/transport"
)

// Config configures one driver session. The zero value is not useful; start
// from DefaultConfig.
type Config struct {
	// Transport configures session establishment, including the generic
	// transport preference.
	Transport transport.Options `yaml:"transport"`

	// Channel configures the command channel (timeouts, error polling).
	Channel scpi.Config `yaml:"channel"`

	// SkipIdentity skips the *IDN? query during Initialize. Model-variant
	// group conditions then see an empty model name.
	SkipIdentity bool `yaml:"skip_identity"`

	// Trace receives session trace events (lifecycle transitions plus all
	// channel traffic, unless Channel.Trace overrides it).
	Trace log.Logger `yaml:"-"`
}

// DefaultConfig returns the default driver configuration.
func DefaultConfig() Config {
	return Config{
		Channel: scpi.DefaultConfig(),
	}
}

// LoadConfig reads a YAML configuration file over the defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
