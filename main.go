package main

import "irus/cli"

func main() {
	cli.Execute()
}
