package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// DefaultConnection is the name used when callers do not pick a connection.
const DefaultConnection = "default"

// Registry holds named connections. Connections are registered explicitly
// and opened lazily; nothing is shared through package-level state, so two
// registries never interfere with each other.
type Registry struct {
	configs  map[string]*Config
	sessions map[string]*Session
	mu       sync.RWMutex
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{
		configs:  make(map[string]*Config),
		sessions: make(map[string]*Session),
	}
}

// NewRegistryFromFile registers every connection a config file declares.
func NewRegistryFromFile(path string) (*Registry, error) {
	file, err := LoadConfigFile(path)
	if err != nil {
		return nil, err
	}

	r := NewRegistry()
	r.Register(DefaultConnection, file.Default)
	for name, cfg := range file.Connections {
		r.Register(name, cfg)
	}
	for name, role := range file.AssumeRoles {
		if err := r.RegisterAssumeRole(name, role); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds or replaces a named connection. An open session under the
// same name is discarded so the next Open sees the new settings.
func (r *Registry) Register(name string, cfg *Config) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[name] = cfg
	delete(r.sessions, name)
}

// RegisterAssumeRole adds a connection that assumes an IAM role in another
// account. Credentials are cached and refreshed by the STS provider itself.
func (r *Registry) RegisterAssumeRole(name string, role AssumeRoleConfig) error {
	if role.RoleARN == "" {
		return fmt.Errorf("assume-role connection %q requires a role ARN", name)
	}

	baseConfig, err := configLoadFunc(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load base AWS config for %q: %w", name, err)
	}

	duration := role.SessionDuration
	if duration <= 0 {
		duration = time.Hour
	}

	stsClient := sts.NewFromConfig(baseConfig)
	provider := stscreds.NewAssumeRoleProvider(stsClient, role.RoleARN, func(o *stscreds.AssumeRoleOptions) {
		if role.ExternalID != "" {
			o.ExternalID = &role.ExternalID
		}
		o.RoleSessionName = fmt.Sprintf("dynamori-%s", name)
		o.Duration = duration
	})

	cfg := DefaultConfig()
	cfg.Region = role.Region
	cfg.Endpoint = role.Endpoint
	cfg.CredentialsProvider = aws.NewCredentialsCache(provider)
	cfg.AWSConfigOptions = []func(*config.LoadOptions) error{
		config.WithCredentialsProvider(cfg.CredentialsProvider),
	}

	r.Register(name, cfg)
	return nil
}

// Open returns the session for a named connection, creating it on first use.
func (r *Registry) Open(name string) (*Session, error) {
	r.mu.RLock()
	if sess, ok := r.sessions[name]; ok {
		r.mu.RUnlock()
		return sess, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	if sess, ok := r.sessions[name]; ok {
		return sess, nil
	}
	cfg, ok := r.configs[name]
	if !ok {
		return nil, fmt.Errorf("connection %q is not registered", name)
	}
	sess, err := NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection %q: %w", name, err)
	}
	r.sessions[name] = sess
	return sess, nil
}

// Close discards a named connection's open session. The registration stays,
// so a later Open rebuilds it.
func (r *Registry) Close(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, name)
}

// CloseAll discards every open session.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = make(map[string]*Session)
}

// Names lists the registered connection names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.configs))
	for name := range r.configs {
		names = append(names, name)
	}
	return names
}
