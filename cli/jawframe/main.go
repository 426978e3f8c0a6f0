// Package main is the jawframe command itself.
package main

import (
	"log"
	"os"

	"github.com/chewlab/jawframe/cli"
)

func main() {
	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
