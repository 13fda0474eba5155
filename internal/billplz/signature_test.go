package billplz

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "s3cr3t"

func TestSign_GoldenValue(t *testing.T) {
	t.Parallel()

	fields := map[string]string{"id": "abc123", "paid": "true", "amount": "5000"}

	assert.Equal(t, "amount5000|idabc123|paidtrue", SourceString(fields, ""))
	assert.Equal(t, "2913d46518d66a621c8359529d34d882cc821f0f26df5bc63fe8cba85c5f053b", Sign(testKey, fields, ""))
}

func TestSign_RedirectGoldenValue(t *testing.T) {
	t.Parallel()

	fields := map[string]string{
		"id":      "abc123",
		"paid":    "true",
		"paid_at": "2026-10-18 10:00:00 +0800",
	}

	assert.Equal(t,
		"billplzidabc123|billplzpaid_at2026-10-18 10:00:00 +0800|billplzpaidtrue",
		SourceString(fields, RedirectPrefix),
	)
	assert.Equal(t, "a5dbd84d52ec98de061875b6918a59b74808b002b82051b95542568bc5f7d5d5", Sign(testKey, fields, RedirectPrefix))
}

func TestSourceString_ExcludesSignatureAndSortsCaseInsensitively(t *testing.T) {
	t.Parallel()

	fields := map[string]string{
		"Zeta":         "1",
		"alpha":        "2",
		"Beta":         "3",
		SignatureField: "ignored",
	}

	assert.Equal(t, "alpha2|Beta3|Zeta1", SourceString(fields, ""))
}

func TestSign_Deterministic(t *testing.T) {
	t.Parallel()

	a := map[string]string{"id": "x", "paid": "true", "state": "paid", "amount": "100"}
	b := map[string]string{"amount": "100", "state": "paid", "paid": "true", "id": "x"}

	for i := 0; i < 20; i++ {
		assert.Equal(t, Sign(testKey, a, ""), Sign(testKey, b, ""))
	}
}

func TestSign_DiffersByKey(t *testing.T) {
	t.Parallel()

	fields := map[string]string{"id": "abc123"}
	assert.NotEqual(t, Sign("one", fields, ""), Sign("two", fields, ""))
}

func TestVerifier_VerifyCallback(t *testing.T) {
	t.Parallel()

	base := map[string]string{"id": "abc123", "paid": "true", "amount": "5000", "state": "paid"}
	signed := func() map[string]string {
		f := make(map[string]string, len(base)+1)
		for k, v := range base {
			f[k] = v
		}
		f[SignatureField] = Sign(testKey, base, "")
		return f
	}

	t.Run("valid signature is verified", func(t *testing.T) {
		t.Parallel()
		v := NewVerifier(testKey, false, nil)

		outcome, err := v.VerifyCallback(signed())
		require.NoError(t, err)
		assert.Equal(t, OutcomeVerified, outcome)
	})

	t.Run("signature must match exactly", func(t *testing.T) {
		t.Parallel()
		v := NewVerifier(testKey, false, nil)
		f := signed()
		f[SignatureField] = strings.ToUpper(f[SignatureField])

		outcome, err := v.VerifyCallback(f)
		assert.True(t, IsSignatureError(err))
		assert.Equal(t, OutcomeRejected, outcome)
	})

	t.Run("tampering any single field is rejected", func(t *testing.T) {
		t.Parallel()
		v := NewVerifier(testKey, false, nil)

		for k := range base {
			f := signed()
			f[k] = f[k] + "0"

			outcome, err := v.VerifyCallback(f)
			require.Error(t, err, "field %s", k)
			assert.True(t, IsSignatureError(err))
			assert.Equal(t, OutcomeRejected, outcome)
		}
	})

	t.Run("added field is rejected", func(t *testing.T) {
		t.Parallel()
		v := NewVerifier(testKey, false, nil)
		f := signed()
		f["extra"] = "1"

		_, err := v.VerifyCallback(f)
		assert.True(t, IsSignatureError(err))
	})

	t.Run("missing signature fails closed", func(t *testing.T) {
		t.Parallel()
		v := NewVerifier(testKey, false, nil)

		outcome, err := v.VerifyCallback(base)
		require.Error(t, err)
		assert.True(t, IsSignatureError(err))
		assert.Equal(t, OutcomeRejected, outcome)
	})

	t.Run("mismatch message does not leak expected value", func(t *testing.T) {
		t.Parallel()
		v := NewVerifier(testKey, false, nil)
		f := signed()
		expected := f[SignatureField]
		f[SignatureField] = strings.Repeat("0", 64)

		_, err := v.VerifyCallback(f)
		require.Error(t, err)
		assert.NotContains(t, err.Error(), expected)
	})
}

func TestVerifier_MissingKey(t *testing.T) {
	t.Parallel()

	fields := map[string]string{"id": "abc123", "paid": "true"}

	t.Run("bypassed when unsigned allowed", func(t *testing.T) {
		t.Parallel()
		v := NewVerifier("", true, nil)

		outcome, err := v.VerifyCallback(fields)
		require.NoError(t, err)
		assert.Equal(t, OutcomeBypassed, outcome)
		assert.NotEqual(t, OutcomeVerified, outcome)
	})

	t.Run("configuration error otherwise", func(t *testing.T) {
		t.Parallel()
		v := NewVerifier("", false, nil)

		outcome, err := v.VerifyRedirect(fields)
		require.Error(t, err)
		assert.True(t, IsConfigurationError(err))
		assert.Contains(t, err.Error(), "BILLPLZ_SIGNATURE_KEY")
		assert.Equal(t, OutcomeRejected, outcome)
	})
}

func TestVerifier_VerifyRedirect(t *testing.T) {
	t.Parallel()

	fields := map[string]string{"id": "abc123", "paid": "true", "paid_at": "2026-10-18 10:00:00 +0800"}
	sig := Sign(testKey, fields, RedirectPrefix)

	q := url.Values{}
	q.Set("billplz[id]", fields["id"])
	q.Set("billplz[paid]", fields["paid"])
	q.Set("billplz[paid_at]", fields["paid_at"])
	q.Set("billplz[x_signature]", sig)
	q.Set("utm_source", "email")

	v := NewVerifier(testKey, false, nil)

	outcome, err := v.VerifyRedirect(RedirectFields(q))
	require.NoError(t, err)
	assert.Equal(t, OutcomeVerified, outcome)

	// A callback-style signature must not verify as a redirect.
	q.Set("billplz[x_signature]", Sign(testKey, fields, ""))
	_, err = v.VerifyRedirect(RedirectFields(q))
	assert.True(t, IsSignatureError(err))
}

func TestRedirectFields(t *testing.T) {
	t.Parallel()

	q := url.Values{
		"billplz[id]":   {"abc"},
		"billplz[paid]": {"false"},
		"billplz[]":     {"x"},
		"billplzid":     {"nope"},
		"other":         {"1"},
	}

	assert.Equal(t, map[string]string{"id": "abc", "paid": "false"}, RedirectFields(q))
}

func TestCallbackFields_FirstValueWins(t *testing.T) {
	t.Parallel()

	form := url.Values{"id": {"a", "b"}, "paid": {"true"}}
	assert.Equal(t, map[string]string{"id": "a", "paid": "true"}, CallbackFields(form))
}

func TestOutcome_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "verified", OutcomeVerified.String())
	assert.Equal(t, "bypassed", OutcomeBypassed.String())
	assert.Equal(t, "rejected", OutcomeRejected.String())
}
