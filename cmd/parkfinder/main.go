package main

import "github.com/pfrederiksen/parkfinder/internal/cli"

func main() {
	cli.Execute()
}
