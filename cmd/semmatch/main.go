package main

import "github.com/semmatch/semmatch/cmd"

func main() {
	cmd.Execute()
}
