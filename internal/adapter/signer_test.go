package adapter

import (
	"encoding/base64"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const docSecret = "kQH5HW/8p1uGOVjbgWA7FunAmGO8lsSUXNsu3eow76sz84Q18fWxnyRzBHCd3pd5nE9qa99HAZtuZuj6F1huXg=="

func TestSign_KnownVectors(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
		want string
	}{
		{
			name: "ledgers nonce body",
			path: LedgersPath,
			body: "nonce=1616492376594",
			want: "Liv3++8m44MwGzwJj9l+jI25aLeAOSXeOecIQW4tXiXA/CINEmfDaiILq4+s3JdPJDKoo+GuTOOm+BinztQneA==",
		},
		{
			// Published exchange example, where the digest input is nonce followed by the post data.
			name: "published add order example",
			path: "/0/private/AddOrder",
			body: "1616492376594nonce=1616492376594&ordertype=limit&pair=XBTUSD&price=37500&type=buy&volume=1.25",
			want: "4/dpxb3iT4tp/ZCVEwSnEsLxx0bqyhLpdfOpc6fn7OR8+UClSV5n9E6aSS8MPtnRfp32bAb0nmbRn6H8ndwLUQ==",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signer, err := NewSigner(docSecret)
			require.NoError(t, err)
			assert.Equal(t, tt.want, signer.Sign(tt.path, tt.body))
		})
	}
}

func TestNewSigner_MalformedSecret(t *testing.T) {
	_, err := NewSigner("not*base64")
	assert.Error(t, err)

	_, err = NewSigner("")
	assert.Error(t, err)

	_, err = NewSigner("%%%")
	assert.Error(t, err)
}

func TestSigner_MatchesPureSign(t *testing.T) {
	signer, err := NewSigner(docSecret)
	require.NoError(t, err)

	key, err := base64.StdEncoding.DecodeString(docSecret)
	require.NoError(t, err)

	assert.Equal(t, Sign(LedgersPath, "nonce=42", key), signer.Sign(LedgersPath, "nonce=42"))
}

func TestSign_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("signature is deterministic", prop.ForAll(
		func(path, body string, secret []byte) bool {
			return Sign(path, body, secret) == Sign(path, body, secret)
		},
		gen.AlphaString(),
		gen.AlphaString(),
		gen.SliceOf(gen.UInt8()),
	))

	properties.Property("signature decodes to a 64 byte MAC", prop.ForAll(
		func(path, body string) bool {
			raw, err := base64.StdEncoding.DecodeString(Sign(path, body, []byte("k")))
			return err == nil && len(raw) == 64
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.Property("changing the path changes the signature", prop.ForAll(
		func(path, body string) bool {
			return Sign(path, body, []byte("k")) != Sign(path+"x", body, []byte("k"))
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.Property("changing the body changes the signature", prop.ForAll(
		func(path, body string) bool {
			return Sign(path, body, []byte("k")) != Sign(path, body+"1", []byte("k"))
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.Property("changing the secret changes the signature", prop.ForAll(
		func(path, body string, secret []byte) bool {
			other := append(append([]byte{}, secret...), 0x01)
			return Sign(path, body, secret) != Sign(path, body, other)
		},
		gen.AlphaString(),
		gen.AlphaString(),
		gen.SliceOfN(16, gen.UInt8()),
	))

	properties.TestingRun(t)
}
