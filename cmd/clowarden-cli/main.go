// Command clowarden-cli is CLOWarden's local front-end (spec.md §6):
// validate, diff and generate, each a thin driver over the same
// pkg/cfgloader/pkg/state/pkg/service machinery the server uses, talking
// to the platform as a plain GitHub personal access token rather than an
// App installation.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/clowarden/clowarden/pkg/ghclient"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd, args := os.Args[1], os.Args[2:]

	var err error
	switch cmd {
	case "validate":
		err = runValidate(args)
	case "diff":
		err = runDiff(args)
	case "generate":
		err = runGenerate(args)
	case "-h", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		usage()
		os.Exit(2)
	}
	if err != nil {
		logrus.WithError(err).Error("clowarden-cli")
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: clowarden-cli <command> [flags]

commands:
  validate --org --repo --branch [--permissions-file] [--people-file]
  diff     --org --repo --branch [--permissions-file] [--people-file]
  generate --org --output-file <path>

GITHUB_TOKEN must be set in the environment for every command.`)
}

// newGateway builds the GitHub_TOKEN-authenticated Gateway every
// subcommand talks through, per spec.md §6.
func newGateway() (ghclient.Gateway, error) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("GITHUB_TOKEN must be set")
	}
	return ghclient.NewTokenClient(token, logrus.StandardLogger()), nil
}
