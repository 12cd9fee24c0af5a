package emailcheck

import (
	"strings"
	"testing"

	"github.com/go-video-intake/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestValidate_DisposableDomainsRejected(t *testing.T) {
	b := NewBlocklist()
	for _, d := range DefaultDisposableDomains {
		err := b.Validate("someone@" + d)
		assert.ErrorIs(t, err, domain.ErrInvalidEmail, d)
		assert.ErrorContains(t, err, "disposable")
	}
	assert.ErrorIs(t, b.Validate("Someone@MAILINATOR.com"), domain.ErrInvalidEmail)
}

func TestValidate_ExtraDomains(t *testing.T) {
	b := NewBlocklist(" Throwaway.io ", "")
	assert.True(t, b.IsDisposable("x@throwaway.io"))
	assert.False(t, b.IsDisposable("x@gmail.com"))
}

func TestValidate_Syntax(t *testing.T) {
	b := NewBlocklist()
	assert.NoError(t, b.Validate("alice@example.com"))
	for _, bad := range []string{"", "alice", "alice@", "@example.com", "alice@example", "al ice@example.com"} {
		assert.ErrorIs(t, b.Validate(bad), domain.ErrInvalidEmail, bad)
	}
}

func TestValidate_Length(t *testing.T) {
	b := NewBlocklist()
	long := strings.Repeat("a", 95) + "@example.com"
	assert.ErrorContains(t, b.Validate(long), "too long")
}

func TestDomain(t *testing.T) {
	assert.Equal(t, "example.com", Domain("a@Example.com"))
	assert.Equal(t, "", Domain("nope"))
}
