package normalizers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	t.Run("should trim and lowercase", func(t *testing.T) {
		assert.Equal(t, "cedis valencia", Key("  CEDIS Valencia "))
	})

	t.Run("should leave inner whitespace alone", func(t *testing.T) {
		assert.Equal(t, "guatire  i", Key("Guatire  I"))
	})

	t.Run("should return empty for blank input", func(t *testing.T) {
		assert.Equal(t, "", Key("   "))
	})
}

func TestNormalizeCode(t *testing.T) {
	t.Run("should collapse whitespace and lowercase", func(t *testing.T) {
		assert.Equal(t, "alm 001", NormalizeCode(" ALM   001 "))
	})
}

func TestCollapseWhitespace(t *testing.T) {
	t.Run("should collapse runs into a single space", func(t *testing.T) {
		assert.Equal(t, "a b c", CollapseWhitespace("a\t b \n c"))
	})
}

func TestDigitsOnly(t *testing.T) {
	t.Run("should drop everything but digits", func(t *testing.T) {
		assert.Equal(t, "10452", DigitsOnly("BPL-10452"))
	})
}

func TestApplyChain(t *testing.T) {
	t.Run("should apply normalizers in order", func(t *testing.T) {
		assert.Equal(t, "cedisvalencia", ApplyChain(" CEDIS Valencia ", "key", "alphanumeric"))
	})

	t.Run("should skip unknown normalizers", func(t *testing.T) {
		assert.Equal(t, "abc", ApplyChain("abc", "does_not_exist"))
	})
}
