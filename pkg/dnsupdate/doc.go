// Package dnsupdate is a small RFC 2136 client for keeping IPv4 address
// records current on an authoritative server.
//
// It queries the server directly (no recursion) to read the current A
// records of a name, and sends signed or unsigned DNS UPDATE messages to
// insert or replace them. Any RFC 2136 server works: BIND, Knot, PowerDNS,
// Windows DNS.
//
//	client, err := dnsupdate.NewClient(&dnsupdate.Config{
//	    Server:      "ns1.example.com:53",
//	    Zone:        "example.com.",
//	    TSIGKeyName: "dnsyncmyip.",
//	    TSIGSecret:  secret,
//	})
//	if err != nil {
//	    return err
//	}
//
//	err = client.Insert(ctx, dnsupdate.NewARecord("home.example.com.", addr, 300))
//
// TSIG keys can be generated with BIND's tsig-keygen:
//
//	tsig-keygen -a hmac-sha256 dnsyncmyip > dnsyncmyip.key
package dnsupdate
