// Package workbench holds build-level facts about the workbench module.
package workbench

// Version is the release version reported by the CLI.
const Version = "0.1.0"

// ModulePath is the Go module path.
const ModulePath = "github.com/mesh-intelligence/workbench"
