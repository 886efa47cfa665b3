// Package clientip extracts the caller's IP address from HTTP requests,
// honoring common proxy headers, and carries it through context so audit
// events can record the network origin of security-relevant actions.
package clientip
