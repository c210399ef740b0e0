// Package salesdesk holds build metadata for the salesdesk module.
package salesdesk

// Version is the release version, overridable at link time with
// -ldflags "-X github.com/mesh-intelligence/salesdesk/pkg/salesdesk.Version=...".
var Version = "0.1.0"

// ModulePath is the Go module path.
const ModulePath = "github.com/mesh-intelligence/salesdesk"
