package main

import "nugget-translator/internal/cli"

func main() {
	cli.Execute()
}
