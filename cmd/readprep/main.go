package main

import "github.com/aalvaropc/readprep/internal/cli"

func main() {
	cli.Execute()
}
