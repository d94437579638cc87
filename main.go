package main

import "github.com/termkeep/termkeep/cmd"

func main() {
	cmd.Execute()
}
