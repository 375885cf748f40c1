package main

import "talibgen/internal/cli"

func main() {
	cli.Execute()
}
