// File: internal/api/api_utils.go
package api

// MaxUploadSize is a request-body size bound; no handler in this package
// applies it.
const MaxUploadSize = 5 * 1024 * 1024 // 5 MB
