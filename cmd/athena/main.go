// Command athena indexes policy documents and serves cited context for them.
package main

import (
	"context"
	"os"

	"github.com/custodia-labs/athena/internal/adapters/driving/cli"
)

// version is set at build time with -ldflags "-X main.version=v1.2.3".
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetBootstrap(openSettings, buildServices)

	if err := cli.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
