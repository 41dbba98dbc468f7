package main

import (
	"context"
	"os"

	"github.com/grovetools/uptask/cmd"
)

func main() {
	os.Exit(cmd.Execute(context.Background()))
}
