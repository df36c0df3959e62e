// Package contactbook holds build metadata for the contactbook module.
package contactbook

// Version is the release version, overridden at build time with
// -ldflags "-X github.com/mesh-intelligence/contactbook/pkg/contactbook.Version=...".
var Version = "0.1.0-dev"
