// Package qrcode renders otpauth:// enrollment URIs (or any string) as PNG
// QR codes, either as raw bytes or as a base64 data URI for direct embedding
// in a setup page.
package qrcode
