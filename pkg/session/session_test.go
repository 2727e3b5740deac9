package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubConfigLoad(t *testing.T, cfg aws.Config, err error) {
	t.Helper()
	original := configLoadFunc
	configLoadFunc = func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
		return cfg, err
	}
	t.Cleanup(func() { configLoadFunc = original })
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "us-east-1", cfg.Region)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 3, cfg.MaxRetryAttempts)
}

func TestNewSession(t *testing.T) {
	stubConfigLoad(t, aws.Config{Region: "eu-west-1"}, nil)

	sess, err := NewSession(&Config{Region: "eu-west-1", Endpoint: "http://localhost:8000"})
	require.NoError(t, err)

	client, err := sess.Client()
	require.NoError(t, err)
	assert.NotNil(t, client)
	assert.Equal(t, "eu-west-1", sess.AWSConfig().Region)
	assert.Equal(t, "http://localhost:8000", sess.Config().Endpoint)
}

func TestNewSessionNilConfigUsesDefaults(t *testing.T) {
	stubConfigLoad(t, aws.Config{Region: "us-east-1"}, nil)

	sess, err := NewSession(nil)
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", sess.Config().Region)
}

func TestNewSessionConfigLoadError(t *testing.T) {
	stubConfigLoad(t, aws.Config{}, fmt.Errorf("no credentials"))

	_, err := NewSession(DefaultConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load AWS config")
}

func TestNilSessionClient(t *testing.T) {
	var sess *Session
	_, err := sess.Client()
	assert.Error(t, err)
}

func TestParseConfigFile(t *testing.T) {
	data := []byte(`
default:
  region: us-west-2
  endpoint: http://localhost:8000
  max_retry_attempts: 5
connections:
  analytics:
    region: eu-central-1
assume_roles:
  partner:
    role_arn: arn:aws:iam::123456789012:role/reader
    external_id: abc
    region: us-east-2
    session_duration: 30m
`)

	file, err := ParseConfigFile(data)
	require.NoError(t, err)

	assert.Equal(t, "us-west-2", file.Default.Region)
	assert.Equal(t, "http://localhost:8000", file.Default.Endpoint)
	assert.Equal(t, 5, file.Default.MaxRetryAttempts)
	require.Contains(t, file.Connections, "analytics")
	assert.Equal(t, "eu-central-1", file.Connections["analytics"].Region)
	require.Contains(t, file.AssumeRoles, "partner")
	assert.Equal(t, "arn:aws:iam::123456789012:role/reader", file.AssumeRoles["partner"].RoleARN)
	assert.Equal(t, 30*time.Minute, file.AssumeRoles["partner"].SessionDuration)
}

func TestParseConfigFileDefaultsWhenMissing(t *testing.T) {
	file, err := ParseConfigFile([]byte(`connections: {}`))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Region, file.Default.Region)
}

func TestParseConfigFileInvalidYAML(t *testing.T) {
	_, err := ParseConfigFile([]byte("default: [not a mapping"))
	assert.Error(t, err)
}

func TestRegistryOpenAndReuse(t *testing.T) {
	stubConfigLoad(t, aws.Config{Region: "us-east-1"}, nil)

	r := NewRegistry()
	r.Register("primary", &Config{Region: "us-east-1"})

	first, err := r.Open("primary")
	require.NoError(t, err)
	second, err := r.Open("primary")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestRegistryUnknownConnection(t *testing.T) {
	r := NewRegistry()
	_, err := r.Open("missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestRegistryReRegisterDiscardsSession(t *testing.T) {
	stubConfigLoad(t, aws.Config{Region: "us-east-1"}, nil)

	r := NewRegistry()
	r.Register("primary", &Config{Region: "us-east-1"})

	first, err := r.Open("primary")
	require.NoError(t, err)

	r.Register("primary", &Config{Region: "eu-west-1"})
	second, err := r.Open("primary")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, "eu-west-1", second.Config().Region)
}

func TestRegistryCloseForcesReopen(t *testing.T) {
	stubConfigLoad(t, aws.Config{Region: "us-east-1"}, nil)

	r := NewRegistry()
	r.Register("primary", &Config{Region: "us-east-1"})

	first, err := r.Open("primary")
	require.NoError(t, err)
	r.Close("primary")

	second, err := r.Open("primary")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestRegistryAssumeRoleValidation(t *testing.T) {
	r := NewRegistry()
	err := r.RegisterAssumeRole("partner", AssumeRoleConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "role ARN")
}

func TestRegistryAssumeRole(t *testing.T) {
	stubConfigLoad(t, aws.Config{Region: "us-east-1"}, nil)

	r := NewRegistry()
	err := r.RegisterAssumeRole("partner", AssumeRoleConfig{
		RoleARN: "arn:aws:iam::123456789012:role/reader",
		Region:  "us-east-2",
	})
	require.NoError(t, err)

	sess, err := r.Open("partner")
	require.NoError(t, err)
	assert.Equal(t, "us-east-2", sess.Config().Region)
	assert.NotNil(t, sess.Config().CredentialsProvider)
}

func TestRegistryNames(t *testing.T) {
	r := NewRegistry()
	r.Register("a", nil)
	r.Register("b", nil)
	assert.ElementsMatch(t, []string{"a", "b"}, r.Names())
}
