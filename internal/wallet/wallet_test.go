package wallet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	w, err := Generate("Wallet 1")
	require.NoError(t, err)

	assert.Equal(t, "Wallet 1", w.Name)
	assert.False(t, w.PublicKey.IsZero())
	assert.Equal(t, w.PrivateKey.PublicKey(), w.PublicKey)
}

func TestFromBase58Invalid(t *testing.T) {
	_, err := FromBase58("bad", "not-a-key")
	require.Error(t, err)
}

func TestRecordRoundTrip(t *testing.T) {
	w, err := Generate("main")
	require.NoError(t, err)

	restored, err := FromRecord(w.ToRecord())
	require.NoError(t, err)

	assert.Equal(t, w.Name, restored.Name)
	assert.Equal(t, w.PublicKey, restored.PublicKey)
}

func TestMaskedKeyHidesSecret(t *testing.T) {
	w, err := Generate("main")
	require.NoError(t, err)

	masked := w.MaskedKey()
	full := w.PrivateKey.String()

	assert.NotEqual(t, full, masked)
	assert.Contains(t, masked, "...")
	assert.True(t, strings.HasPrefix(full, masked[:5]))
	assert.True(t, strings.HasSuffix(full, masked[len(masked)-5:]))
}
