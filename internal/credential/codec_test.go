package credential

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_RoundTrip(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		secret string
		source Source
	}{
		{"signed", "test-secret", SourceSigned},
		{"plain", "", SourcePlain},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewCodec(tc.secret)
			for _, pair := range [][2]string{
				{"A1B2C3D4", "EVT-2024"},
				{"ZZZZ9999", "summer-gala"},
				{"0f47ac10-58cc", "e1"},
			} {
				token := c.Encode(pair[0], pair[1])
				cred, err := c.Decode(token)
				require.NoError(t, err, "token %q", token)
				assert.Equal(t, pair[0], cred.RegistrationID)
				assert.Equal(t, pair[1], cred.EventID)
				assert.Equal(t, tc.source, cred.Source)
			}
		})
	}
}

func TestCodec_EncodeDeterministic(t *testing.T) {
	t.Parallel()

	c := NewCodec("secret")
	assert.Equal(t, c.Encode("A1B2C3D4", "E1"), c.Encode("A1B2C3D4", "E1"))
}

func TestCodec_DecodeMalformed(t *testing.T) {
	t.Parallel()

	signed := NewCodec("test-secret")
	plain := NewCodec("")

	t.Run("empty", func(t *testing.T) {
		_, err := signed.Decode("")
		assert.ErrorIs(t, err, ErrEmptyToken)
		_, err = signed.Decode("   ")
		assert.ErrorIs(t, err, ErrEmptyToken)
	})

	t.Run("wrong delimiter count", func(t *testing.T) {
		_, err := plain.Decode("a|b|c")
		assert.ErrorIs(t, err, ErrMalformedToken)
		_, err = signed.Decode("a|b|c|d")
		assert.ErrorIs(t, err, ErrMalformedToken)
	})

	t.Run("empty fields", func(t *testing.T) {
		for _, token := range []string{"|E1", "A1B2C3D4|", "|"} {
			_, err := plain.Decode(token)
			assert.ErrorIs(t, err, ErrMalformedToken, "token %q", token)
		}
	})

	t.Run("bad signature", func(t *testing.T) {
		token := signed.Encode("A1B2C3D4", "E1")
		_, err := signed.Decode(token[:len(token)-1] + "0")
		assert.ErrorIs(t, err, ErrMalformedToken)
	})

	t.Run("unsigned token rejected when secret configured", func(t *testing.T) {
		_, err := signed.Decode("A1B2C3D4|E1")
		assert.ErrorIs(t, err, ErrMalformedToken)
	})

	t.Run("signature from another secret", func(t *testing.T) {
		other := NewCodec("other-secret")
		_, err := signed.Decode(other.Encode("A1B2C3D4", "E1"))
		assert.ErrorIs(t, err, ErrMalformedToken)
	})

	t.Run("not a token", func(t *testing.T) {
		for _, token := range []string{"not-a-token", "not a token", "A1B2C3D4!!"} {
			_, err := signed.Decode(token)
			assert.ErrorIs(t, err, ErrMalformedToken, "token %q", token)
		}
	})
}

func TestCodec_DecodeLegacyJSON(t *testing.T) {
	t.Parallel()

	c := NewCodec("test-secret")

	t.Run("registrationId/eventId keys", func(t *testing.T) {
		cred, err := c.Decode(`{"registrationId":"A1B2C3D4","eventId":"E1","name":"Asha"}`)
		require.NoError(t, err)
		assert.Equal(t, "A1B2C3D4", cred.RegistrationID)
		assert.Equal(t, "E1", cred.EventID)
		assert.Equal(t, SourceLegacyJSON, cred.Source)
	})

	t.Run("id/event keys", func(t *testing.T) {
		cred, err := c.Decode(`{"id":"A1B2C3D4","event":"E1"}`)
		require.NoError(t, err)
		assert.Equal(t, "A1B2C3D4", cred.RegistrationID)
		assert.Equal(t, "E1", cred.EventID)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := c.Decode(`{"registrationId":`)
		assert.ErrorIs(t, err, ErrMalformedToken)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := c.Decode(`{"registrationId":"A1B2C3D4"}`)
		assert.ErrorIs(t, err, ErrMalformedToken)
	})
}

func TestCodec_DecodeBareID(t *testing.T) {
	t.Parallel()

	c := NewCodec("test-secret")

	cred, err := c.Decode("A1B2C3D4")
	require.NoError(t, err)
	assert.Equal(t, "A1B2C3D4", cred.RegistrationID)
	assert.Empty(t, cred.EventID)
	assert.Equal(t, SourceBareID, cred.Source)

	// Too short to be a registration ID.
	_, err = c.Decode("A1B2")
	assert.True(t, errors.Is(err, ErrMalformedToken))
}
