// Package main is the CLI command itself.
package main

import (
	"os"

	"go.viam.com/rgbdassoc/cli"
	"go.viam.com/rgbdassoc/logging"
)

func main() {
	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		logging.NewWriterLogger(app.Name, os.Stderr).Fatal(err)
	}
}
