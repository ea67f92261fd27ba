package main

import "github.com/carebridge-health/portal/cmd/portal/cmd"

func main() {
	cmd.Execute()
}
