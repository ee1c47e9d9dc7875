package main

import "github.com/brogergvhs/novelgrab/cmd"

func main() {
	cmd.Execute()
}
