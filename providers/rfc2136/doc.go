// Package rfc2136 keeps the address record on any authoritative server that
// accepts RFC 2136 dynamic updates (BIND, Knot, PowerDNS, Windows DNS).
//
// Records are read with a direct, non-recursive A query against the
// configured server and written with DNS UPDATE messages, optionally signed
// with a TSIG key. An update replaces the whole A RRset of the name, so
// extra addresses published for it are dropped. The shared token, when set, is used as the TSIG secret.
//
// Settings (DNSYNCMYIP_RFC2136_{KEY}):
//
//	SERVER          authoritative server, host or host:port (required)
//	ZONE            zone apex if it differs from the configured domain
//	TSIG_KEY_NAME   TSIG key name
//	TSIG_SECRET     base64 TSIG secret (defaults to the shared token)
//	TSIG_ALGORITHM  hmac-sha256 (default), hmac-sha512, hmac-sha1, hmac-md5
//	TTL             TTL of written records in seconds (default 300)
//	TIMEOUT         per-exchange timeout, Go duration or seconds (default 10s)
//	USE_TCP         send over TCP instead of UDP
package rfc2136
