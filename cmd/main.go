// cmd/main.go
package main

import cmd "github.com/mwiater/lmbench/cmd/lmbench"

// main starts the lmbench CLI by delegating to the cobra root command.
func main() {
	cmd.Execute()
}
