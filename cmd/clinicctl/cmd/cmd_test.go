package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic/pkg/secrets"
)

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "clinicctl dev\n", out)
}

func TestCheckDocument(t *testing.T) {
	tests := []struct {
		kind, value, want string
	}{
		{"cpf", "52998224725", "529.982.247-25"},
		{"cnpj", "11.222.333/0001-81", "11.222.333/0001-81"},
		{"cep", "01310100", "01310-100"},
		{"phone", "11987654321", "(11) 98765-4321"},
		{"email", " Ana@Example.COM ", "ana@example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			out, _, err := execute(t, "", "check-document", tt.kind, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want+"\n", out)
		})
	}

	t.Run("invalid", func(t *testing.T) {
		_, _, err := execute(t, "", "check-document", "cpf", "111.111.111-11")
		assert.ErrorContains(t, err, "is invalid")
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, _, err := execute(t, "", "check-document", "rg", "123")
		assert.ErrorContains(t, err, "unknown document kind")
	})
}

func TestHashPassword(t *testing.T) {
	t.Setenv("SECURITY_PBKDF2_ITERATIONS", "10000")

	t.Run("from argument", func(t *testing.T) {
		out, _, err := execute(t, "", "hash-password", "Str0ng!Passw0rd")
		require.NoError(t, err)
		hash := strings.TrimSpace(out)
		assert.True(t, secrets.VerifyPassword("Str0ng!Passw0rd", hash))
		assert.False(t, secrets.NeedsRehash(hash, 10_000))
	})

	t.Run("from stdin", func(t *testing.T) {
		out, _, err := execute(t, "Str0ng!Passw0rd\n", "hash-password", "--iterations", "20000")
		require.NoError(t, err)
		assert.True(t, secrets.VerifyPassword("Str0ng!Passw0rd", strings.TrimSpace(out)))
	})

	t.Run("weak password", func(t *testing.T) {
		_, errOut, err := execute(t, "", "hash-password", "short")
		assert.ErrorContains(t, err, "policy")
		assert.Contains(t, errOut, "Password must be at least")
	})
}

func TestMigrateDryRun(t *testing.T) {
	out, _, err := execute(t, "", "migrate", "--dry-run")
	require.NoError(t, err)
	assert.Equal(t, "0001_init\n0002_outbox\n0003_unaccent\n", out)
}
