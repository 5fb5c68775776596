package main

import "github.com/mcoot/playermanager/internal/cli"

func main() {
	cli.Execute()
}
