package main

import "github.com/stackgen-cli/loop-migrate/cmd"

func main() {
	cmd.Execute()
}
