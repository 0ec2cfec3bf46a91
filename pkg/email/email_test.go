package email

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsValid(t *testing.T) {
	valid := []string{
		"user@example.com",
		"first.last+tag@clinica.com.br",
		"o'neil@example.org",
		"a@b.co",
	}
	for _, e := range valid {
		assert.True(t, IsValid(e), e)
	}

	invalid := []string{
		"",
		"plainaddress",
		"two@@example.com",
		"a@b@example.com",
		"@example.com",
		"user@",
		"user@localhost",
		".user@example.com",
		"user.@example.com",
		"us..er@example.com",
		"user@-example.com",
		"user name@example.com",
	}
	for _, e := range invalid {
		assert.False(t, IsValid(e), e)
	}
}

func TestIsValid_LengthBounds(t *testing.T) {
	t.Run("rejects total over 254", func(t *testing.T) {
		domain := strings.Repeat("a", 60) + "." + strings.Repeat("b", 60) + "." + strings.Repeat("c", 60) + "." + strings.Repeat("d", 60) + ".com"
		e := strings.Repeat("x", 10) + "@" + domain
		assert.Greater(t, len(e), MaxLength)
		assert.False(t, IsValid(e))
	})

	t.Run("rejects local part over 64", func(t *testing.T) {
		assert.False(t, IsValid(strings.Repeat("a", 65)+"@example.com"))
		assert.True(t, IsValid(strings.Repeat("a", 64)+"@example.com"))
	})
}

func TestIsValid_AdversarialInputIsFast(t *testing.T) {
	inputs := []string{
		strings.Repeat("a.", 30) + "@" + strings.Repeat("a-", 100) + "!",
		strings.Repeat("a", 64) + "@" + strings.Repeat("a.", 90) + "-",
		strings.Repeat("@", 10_000),
	}
	start := time.Now()
	for _, in := range inputs {
		assert.False(t, IsValid(in))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "user@example.com", Normalize("  User@Example.COM "))
}
