package main

import "github.com/jasperwreed/deja/internal/cli"

func main() {
	cli.Execute()
}
