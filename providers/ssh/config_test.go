package ssh

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ruffel/childproc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func TestNewConfig(t *testing.T) {
	t.Parallel()

	c := NewConfig("example.com", "deploy")

	assert.Equal(t, 22, c.Port)
	assert.Equal(t, 10*time.Second, c.Timeout)
	assert.Equal(t, childproc.OSLinux, c.OS)
	assert.Equal(t, "example.com:22", c.Addr())
}

func TestConfig_Addr(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "[::1]:2222", Config{Host: "::1", Port: 2222}.Addr())
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config Config
		want   error
	}{
		{"insecure", Config{Host: "h", User: "u", InsecureSkipVerify: true}, nil},
		{"known hosts", Config{Host: "h", User: "u", KnownHostsPath: "/etc/ssh/known"}, nil},
		{"callback", Config{Host: "h", User: "u", HostKeyCheck: ssh.InsecureIgnoreHostKey()}, nil}, //nolint:gosec
		{"missing host", Config{User: "u", InsecureSkipVerify: true}, ErrNoHost},
		{"missing user", Config{Host: "h", InsecureSkipVerify: true}, ErrNoUser},
		{"missing host key check", Config{Host: "h", User: "u"}, ErrNoHostKeyCheck},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.config.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func testKeyPEM(t *testing.T) []byte {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	block, err := ssh.MarshalPrivateKey(priv, "")
	require.NoError(t, err)

	return pem.EncodeToMemory(block)
}

func TestConfig_ClientConfig(t *testing.T) {
	t.Parallel()

	key := testKeyPEM(t)
	keyPath := filepath.Join(t.TempDir(), "id_ed25519")
	require.NoError(t, os.WriteFile(keyPath, key, 0o600))

	tests := []struct {
		name     string
		config   Config
		wantAuth int
		wantErr  bool
	}{
		{"password", Config{User: "u", Password: "pw", InsecureSkipVerify: true}, 1, false},
		{"inline key and password", Config{User: "u", PrivateKey: string(key), Password: "pw", InsecureSkipVerify: true}, 2, false},
		{"key file", Config{User: "u", PrivateKeyPath: keyPath, InsecureSkipVerify: true}, 1, false},
		{"bad inline key", Config{User: "u", PrivateKey: "not a key", InsecureSkipVerify: true}, 0, true},
		{"missing key file", Config{User: "u", PrivateKeyPath: keyPath + ".missing", InsecureSkipVerify: true}, 0, true},
		{"missing known hosts", Config{User: "u", KnownHostsPath: keyPath + ".missing"}, 0, true},
		{"no host key source", Config{User: "u", Password: "pw"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cc, err := tt.config.ClientConfig(context.Background())
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, "u", cc.User)
			assert.Len(t, cc.Auth, tt.wantAuth)
			assert.NotNil(t, cc.HostKeyCallback)
		})
	}
}

func TestNewFromSSHConfig(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "ssh_config")

	require.NoError(t, os.WriteFile(configPath, []byte(`
Host build
    HostName 10.0.0.7
    User ci
    Port 2222
    IdentityFile ~/.ssh/id_ed25519
    UserKnownHostsFile /etc/ssh/ssh_known_hosts

Host scratch
    HostName scratch.internal
    StrictHostKeyChecking no
    UserKnownHostsFile /dev/null
`), 0o600))

	t.Run("resolves alias", func(t *testing.T) {
		t.Parallel()

		cfg, err := NewFromSSHConfig("build", configPath)
		require.NoError(t, err)

		assert.Equal(t, "10.0.0.7", cfg.Host)
		assert.Equal(t, "ci", cfg.User)
		assert.Equal(t, 2222, cfg.Port)
		assert.Equal(t, "/etc/ssh/ssh_known_hosts", cfg.KnownHostsPath)
		assert.False(t, cfg.InsecureSkipVerify)
		assert.True(t, filepath.IsAbs(cfg.PrivateKeyPath))
		assert.Equal(t, "id_ed25519", filepath.Base(cfg.PrivateKeyPath))
	})

	t.Run("strict checking disabled", func(t *testing.T) {
		t.Parallel()

		cfg, err := NewFromSSHConfig("scratch", configPath)
		require.NoError(t, err)

		assert.True(t, cfg.InsecureSkipVerify)
		assert.Empty(t, cfg.KnownHostsPath)
		require.NoError(t, cfg.Validate())
	})

	t.Run("unknown alias is used as the host", func(t *testing.T) {
		t.Parallel()

		cfg, err := NewFromSSHConfig("other.example.com", configPath)
		require.NoError(t, err)

		assert.Equal(t, "other.example.com", cfg.Host)
		assert.Equal(t, 22, cfg.Port)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := NewFromSSHConfig("build", filepath.Join(tmpDir, "absent"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("invalid port", func(t *testing.T) {
		t.Parallel()

		_, err := NewFromSSHConfigReader("bad", strings.NewReader("Host bad\n    Port twenty\n"))
		require.Error(t, err)
	})
}
