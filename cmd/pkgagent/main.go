package main

import "pkgagent/internal/cli"

func main() {
	cli.Execute()
}
