package main

import "github.com/strangelove-ventures/horcrux-recovery/cmd/horcrux-recovery/cmd"

func main() {
	cmd.Execute()
}
