// Command grinbergai is a terminal chat client for the Jacobo Grinberg assistant.
package main

import "github.com/diogo/grinbergai/internal/commands"

func main() {
	commands.Execute()
}
