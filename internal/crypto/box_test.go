package crypto

import (
	"testing"

	"github.com/nalgeon/be"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestSealOpen(t *testing.T) {
	box, err := NewBox(testKey)
	be.Err(t, err, nil)

	sealed, err := box.Seal("ya29.token")
	be.Err(t, err, nil)
	be.True(t, sealed != "ya29.token")

	opened, err := box.Open(sealed)
	be.Err(t, err, nil)
	be.Equal(t, opened, "ya29.token")
}

func TestSealEmpty(t *testing.T) {
	box, err := NewBox(testKey)
	be.Err(t, err, nil)

	sealed, err := box.Seal("")
	be.Err(t, err, nil)
	be.Equal(t, sealed, "")
}

func TestOpenWrongKey(t *testing.T) {
	a, _ := NewBox(testKey)
	b, _ := NewBox("fedcba9876543210fedcba9876543210")

	sealed, err := a.Seal("secret")
	be.Err(t, err, nil)

	_, err = b.Open(sealed)
	be.True(t, err != nil)
}

func TestNewBoxBadKey(t *testing.T) {
	_, err := NewBox("short")
	be.True(t, err != nil)
}
