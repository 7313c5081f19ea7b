package main

import "github.com/akolanti/DocChat/internal/cli"

func main() {
	cli.Execute()
}
