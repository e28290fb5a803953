package main

import "github.com/awschultz/locationmodel/cmd/locationmodel/commands"

func main() {
	commands.Execute()
}
