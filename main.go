package main

import "github.com/hugeolab/hubsync/internal/cli"

func main() {
	cli.Execute()
}
