package main

import "go-campaign-dispatcher/src/infrastructure/cli"

func main() {
	cli.Execute()
}
