package dnsupdate

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/miekg/dns"
)

// tsigFudge is the permitted clock skew in seconds.
const tsigFudge = 300

// TSIG is a transaction signature key (RFC 8945).
type TSIG struct {
	Name      string // key name, fully qualified
	Secret    string // base64 shared secret
	Algorithm string // miekg/dns algorithm name
}

// NewTSIG validates and normalizes a key.
func NewTSIG(name, secret, algorithm string) (*TSIG, error) {
	if name == "" {
		return nil, fmt.Errorf("tsig key name is required")
	}
	if _, err := base64.StdEncoding.DecodeString(secret); err != nil {
		return nil, fmt.Errorf("tsig secret is not valid base64: %w", err)
	}

	alg := normalizeAlgorithm(algorithm)
	if !isValidAlgorithm(alg) {
		return nil, fmt.Errorf("unsupported tsig algorithm: %s", algorithm)
	}

	return &TSIG{
		Name:      dns.Fqdn(strings.ToLower(name)),
		Secret:    secret,
		Algorithm: alg,
	}, nil
}

// tsigFromConfig returns nil when the config carries no key.
func tsigFromConfig(config *Config) (*TSIG, error) {
	if !config.HasTSIG() {
		return nil, nil //nolint:nilnil // no key means unsigned updates
	}
	return NewTSIG(config.TSIGKeyName, config.TSIGSecret, config.TSIGAlgorithm)
}

func (t *TSIG) applyToClient(client *dns.Client) {
	if t == nil {
		return
	}
	client.TsigSecret = map[string]string{t.Name: t.Secret}
}

// sign must be called after the message is complete.
func (t *TSIG) sign(msg *dns.Msg) {
	if t == nil {
		return
	}
	msg.SetTsig(t.Name, t.Algorithm, tsigFudge, 0)
}

func normalizeAlgorithm(alg string) string {
	switch strings.ToLower(strings.TrimSpace(alg)) {
	case "":
		return DefaultTSIGAlgorithm
	case "hmac-md5", "md5", dns.HmacMD5:
		return dns.HmacMD5
	case "hmac-sha1", "sha1", dns.HmacSHA1:
		return dns.HmacSHA1
	case "hmac-sha256", "sha256", dns.HmacSHA256:
		return dns.HmacSHA256
	case "hmac-sha512", "sha512", dns.HmacSHA512:
		return dns.HmacSHA512
	default:
		return alg
	}
}

func isValidAlgorithm(alg string) bool {
	switch alg {
	case dns.HmacMD5, dns.HmacSHA1, dns.HmacSHA256, dns.HmacSHA512:
		return true
	default:
		return false
	}
}
