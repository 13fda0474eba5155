package billplz

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"

	"go.uber.org/zap"
)

const (
	// SignatureField is the field carrying the X-Signature in callbacks and redirects.
	SignatureField = "x_signature"

	// RedirectPrefix namespaces redirect query keys, both on the wire
	// (billplz[id]) and in the signature source string (billplzid...).
	RedirectPrefix = "billplz"
)

// Outcome is the result of an authenticity check that did not fail.
type Outcome int

const (
	OutcomeRejected Outcome = iota
	OutcomeVerified
	// OutcomeBypassed means no signature key is configured and unsigned
	// requests are explicitly allowed. Never reachable in production.
	OutcomeBypassed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeVerified:
		return "verified"
	case OutcomeBypassed:
		return "bypassed"
	default:
		return "rejected"
	}
}

// SourceString builds the canonical X-Signature source: every field except
// x_signature rendered as prefix+key+value, sorted case-insensitively and
// joined with "|".
func SourceString(fields map[string]string, prefix string) string {
	pairs := make([]string, 0, len(fields))
	for k, v := range fields {
		if k == SignatureField {
			continue
		}
		pairs = append(pairs, prefix+k+v)
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		li, lj := strings.ToLower(pairs[i]), strings.ToLower(pairs[j])
		if li == lj {
			return pairs[i] < pairs[j]
		}
		return li < lj
	})

	return strings.Join(pairs, "|")
}

// Sign computes the hex HMAC-SHA256 X-Signature of fields under key.
func Sign(key string, fields map[string]string, prefix string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(SourceString(fields, prefix)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verifier checks X-Signature authenticity of inbound gateway messages.
type Verifier struct {
	key           string
	allowUnsigned bool
	logger        *zap.Logger
}

// NewVerifier creates a verifier. allowUnsigned permits a missing key to
// bypass verification and must only be set outside production.
func NewVerifier(key string, allowUnsigned bool, logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{
		key:           key,
		allowUnsigned: allowUnsigned,
		logger:        logger.Named("billplz.signature"),
	}
}

// VerifyCallback checks the fields of a server-to-server callback POST.
func (v *Verifier) VerifyCallback(fields map[string]string) (Outcome, error) {
	return v.verify("callback", fields, "")
}

// VerifyRedirect checks the fields of a browser redirect, keyed without
// the billplz[...] wrapper (see RedirectFields).
func (v *Verifier) VerifyRedirect(fields map[string]string) (Outcome, error) {
	return v.verify("redirect", fields, RedirectPrefix)
}

func (v *Verifier) verify(source string, fields map[string]string, prefix string) (Outcome, error) {
	if v.key == "" {
		if v.allowUnsigned {
			v.logger.Warn("signature key not configured, skipping verification (development only)",
				zap.String("source", source),
				zap.String("bill_id", fields["id"]),
			)
			return OutcomeBypassed, nil
		}
		return OutcomeRejected, &ConfigurationError{Setting: "BILLPLZ_SIGNATURE_KEY"}
	}

	received := fields[SignatureField]
	if received == "" {
		v.logger.Warn("no x_signature in payload", zap.String("source", source))
		return OutcomeRejected, errMissingSignature
	}

	expected := Sign(v.key, fields, prefix)
	if !hmac.Equal([]byte(expected), []byte(received)) {
		v.logger.Warn("signature mismatch",
			zap.String("source", source),
			zap.String("bill_id", fields["id"]),
		)
		return OutcomeRejected, errSignatureMismatch
	}

	return OutcomeVerified, nil
}

// CallbackFields flattens a callback form body, keeping the first value of
// each key.
func CallbackFields(form url.Values) map[string]string {
	fields := make(map[string]string, len(form))
	for k, vs := range form {
		if len(vs) > 0 {
			fields[k] = vs[0]
		} else {
			fields[k] = ""
		}
	}
	return fields
}

// RedirectFields extracts billplz[key] query parameters as key -> value.
// Parameters outside the billplz namespace are ignored.
func RedirectFields(query url.Values) map[string]string {
	fields := make(map[string]string)
	for k, vs := range query {
		if !strings.HasPrefix(k, RedirectPrefix+"[") || !strings.HasSuffix(k, "]") {
			continue
		}
		name := k[len(RedirectPrefix)+1 : len(k)-1]
		if name == "" {
			continue
		}
		if len(vs) > 0 {
			fields[name] = vs[0]
		} else {
			fields[name] = ""
		}
	}
	return fields
}
