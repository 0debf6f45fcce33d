// The main package for the f1data executable.
package main

import (
	"github.com/EtienneMahe9/Projet-Bloc1-F1/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
