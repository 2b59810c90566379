// Command workbench serves and manages a task workspace.
package main

import "github.com/mesh-intelligence/workbench/internal/cli"

func main() {
	cli.Execute()
}
