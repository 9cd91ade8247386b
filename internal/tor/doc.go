// Package tor builds the HTTP clients used to download common-PIN lists.
// A download can go out directly, through an existing SOCKS5 proxy, or
// through an embedded Tor daemon started with tornago, so that a provisioning
// host does not reveal itself to the list's hosting provider.
package tor
