// Package config loads the stack configuration document.
package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrConfig is the base error for missing or malformed configuration.
var ErrConfig = errors.New("config error")

// Auth carries the marketplace requester credentials.
type Auth struct {
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
}

// Layout is a named HIT request template. Per-row CSV values are merged into
// the layout's placeholders at build time; the layout itself never changes
// for the process lifetime.
type Layout struct {
	HITLayoutID                 string `json:"hit_layout_id"`
	Title                       string `json:"title"`
	Description                 string `json:"description"`
	Keywords                    string `json:"keywords"`
	Reward                      string `json:"reward"`
	AssignmentDurationInSeconds int64  `json:"assignment_duration_in_seconds"`
	LifetimeInSeconds           int64  `json:"lifetime_in_seconds"`
	MaxAssignments              int32  `json:"max_assignments"`
}

// Config holds the typed stack configuration.
type Config struct {
	Auth                 Auth              `json:"auth"`
	Sandbox              bool              `json:"sandbox"`
	Layouts              map[string]Layout `json:"layouts"`
	NotificationQueueURL string            `json:"turk_notification_queue"`
	TopicPrefix          string            `json:"sns_topic_prefix"`
	LedgerTable          string            `json:"ledger_table"`
	Region               string            `json:"region"`
}

// Loader retrieves the configuration document for a stack. Implementations
// are opaque key-value sources; callers only see the typed Config.
type Loader interface {
	Load(ctx context.Context) (Config, error)
}

// EnvLoader reads the configuration JSON from an environment variable derived
// from the stack name: stack "my-app-dev" reads MY_APP_DEV_CONFIG.
type EnvLoader struct {
	StackName string
}

// NewEnvLoader derives the stack name from APP_NAME and STAGE.
func NewEnvLoader() EnvLoader {
	return EnvLoader{StackName: get("APP_NAME", "task-integrator") + "-" + get("STAGE", "dev")}
}

// Load reads and validates the configuration document.
func (l EnvLoader) Load(_ context.Context) (Config, error) {
	key := configKey(l.StackName)
	raw := os.Getenv(key)
	if raw == "" {
		return Config{}, fmt.Errorf("%w: missing env %s", ErrConfig, key)
	}
	return Parse([]byte(raw))
}

// Parse decodes a configuration document and applies defaults.
func Parse(raw []byte) (Config, error) {
	var c Config
	if err := json.Unmarshal(raw, &c); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if c.Region == "" {
		c.Region = get("AWS_REGION", "us-east-1")
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = "task-integrator"
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// validate checks the fields every pipeline depends on.
func (c Config) validate() error {
	if len(c.Layouts) == 0 {
		return fmt.Errorf("%w: no layouts configured", ErrConfig)
	}
	if c.NotificationQueueURL == "" {
		return fmt.Errorf("%w: missing turk_notification_queue", ErrConfig)
	}
	return nil
}

// configKey converts a stack name into its environment variable key.
func configKey(stackName string) string {
	k := strings.ToUpper(strings.ReplaceAll(stackName, "-", "_"))
	return k + "_CONFIG"
}

// get returns the value of the environment variable k or def if not set.
func get(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
