package main

import (
	"github.com/graphexec/cmd/cli/cmd"
)

func main() {
	cmd.Execute()
}
