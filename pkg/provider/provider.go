// Package provider defines the interface that all DNS record providers must implement.
package provider

import "context"

// RecordTypeA is the only record type managed by dnsyncmyip.
const RecordTypeA = "A"

// DomainRecord represents one A record as known to a provider.
type DomainRecord struct {
	// ID is the provider-assigned identifier, required for updates.
	ID string

	// IP is the IPv4 address currently stored in the record.
	IP string
}

// RecordProvider defines the capability set of a DNS-hosting backend.
// Each backend (DigitalOcean, Cloudflare, RFC 2136) is bound to a single
// domain at construction time.
type RecordProvider interface {
	// Name returns the provider label (e.g., "digitalocean").
	Name() string

	// Domain returns the domain the provider was constructed for.
	Domain() string

	// Find returns the A record for hostName under the bound domain.
	// The bool result reports whether a record was found.
	Find(ctx context.Context, hostName string) (DomainRecord, bool, error)

	// Create adds a new A record for hostName pointing at ip.
	Create(ctx context.Context, hostName, ip string) error

	// Update sets the data of an existing record to ip.
	Update(ctx context.Context, record DomainRecord, ip string) error
}

// Pinger is implemented by providers that can check connectivity
// without touching any record.
type Pinger interface {
	Ping(ctx context.Context) error
}
