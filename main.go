package main

import (
	"context"
	"fmt"
	"os"

	"github.com/hashmap-kz/govreg/cmd"
)

func main() {
	root := cmd.NewRootCmd(cmd.DefaultStreams())
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
