// Command mcptap is a transparent record/replay proxy for MCP servers.
package main

import "github.com/mcptap/mcptap/pkg/cli"

func main() {
	cli.Execute()
}
