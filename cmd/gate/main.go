package main

import "github.com/astro-web3/dashboard-gate/internal/cli"

func main() {
	cli.Execute()
}
