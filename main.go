package main

import "github.com/ethanolivertroy/license-audit/cmd"

func main() {
	cmd.Execute()
}
