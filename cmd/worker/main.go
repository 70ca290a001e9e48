package main

import "github.com/jwalitptl/clinic-api/internal/cli"

func main() {
	cli.ExecuteCommand("work")
}
