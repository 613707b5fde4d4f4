package main

import "github.com/inference-gateway/mcp-manager/cmd"

func main() {
	cmd.Execute()
}
