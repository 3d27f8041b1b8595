package main

import "github.com/mj1618/shopshield/cmd"

func main() {
	cmd.Execute()
}
