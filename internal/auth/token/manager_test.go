package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParseRoundTrip(t *testing.T) {
	m := MustManager(Options{SigningKey: []byte("unit-test-key"), Issuer: "fleetpanel", TTL: time.Hour})

	signed, claims, err := m.Issue("alpha", true)
	require.NoError(t, err)
	require.NotEmpty(t, signed)
	assert.Equal(t, "alpha", claims.Subject)
	assert.True(t, claims.IsSudo)

	parsed, err := m.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "alpha", parsed.Subject)
	assert.True(t, parsed.IsSudo)
	assert.Equal(t, "fleetpanel", parsed.Issuer)
}

func TestIssueRequiresSubject(t *testing.T) {
	m := MustManager(Options{SigningKey: []byte("k")})
	_, _, err := m.Issue("  ", false)
	require.Error(t, err)
}

func TestParseRejectsWrongKey(t *testing.T) {
	m1 := MustManager(Options{SigningKey: []byte("key-one"), TTL: time.Hour})
	m2 := MustManager(Options{SigningKey: []byte("key-two"), TTL: time.Hour})

	signed, _, err := m1.Issue("alpha", false)
	require.NoError(t, err)

	_, err = m2.Parse(signed)
	require.Error(t, err)
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	issuerA := MustManager(Options{SigningKey: []byte("k"), Issuer: "a", TTL: time.Hour})
	issuerB := MustManager(Options{SigningKey: []byte("k"), Issuer: "b", TTL: time.Hour})

	signed, _, err := issuerA.Issue("alpha", false)
	require.NoError(t, err)

	_, err = issuerB.Parse(signed)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseExpiredToken(t *testing.T) {
	m := MustManager(Options{SigningKey: []byte("k"), TTL: time.Nanosecond})

	signed, _, err := m.Issue("alpha", false)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = m.Parse(signed)
	require.ErrorIs(t, err, ErrExpiredToken)
}

func TestNewManagerRequiresKey(t *testing.T) {
	_, err := NewManager(Options{})
	require.Error(t, err)
}
