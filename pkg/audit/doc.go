// Package audit records security-relevant actions (second-factor setup,
// enable, disable, verification attempts, logins) with identity, action,
// outcome and caller network origin.
//
// Events flow through the Storage interface so deployments choose their own
// durability; MemoryStorage serves tests. Context extractors let HTTP
// middleware supply identity and client IP without plumbing them through
// every call site. Events never contain secret material: the logger only
// ever sees action names, identifiers and error strings from the sentinel
// error taxonomy.
package audit
