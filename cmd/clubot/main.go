package main

import "github.com/pfrederiksen/clubot/internal/cli"

func main() {
	cli.Execute()
}
