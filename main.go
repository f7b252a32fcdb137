package main

import "github.com/ferreirogomes/promissory/cli"

func main() {
	cli.Execute()
}
