package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/clowarden/clowarden/pkg/ghclient"
	"github.com/clowarden/clowarden/pkg/state"
)

// sourceOptions are the flags the validate and diff subcommands use to
// locate the configuration repository to operate against, grounded on
// cmd/peribolos/main.go's options.parseArgs pattern: one flag.FlagSet per
// subcommand, parsed explicitly rather than through a shared global set.
type sourceOptions struct {
	org             string
	repo            string
	branch          string
	permissionsFile string
	peopleFile      string
}

func (o *sourceOptions) register(fs *flag.FlagSet) {
	fs.StringVar(&o.org, "org", "", "organization name (required)")
	fs.StringVar(&o.repo, "repo", "", "configuration repository name (required)")
	fs.StringVar(&o.branch, "branch", "main", "branch to read the configuration from")
	fs.StringVar(&o.permissionsFile, "permissions-file", "permissions.yaml", "path to the permissions file within the repository")
	fs.StringVar(&o.peopleFile, "people-file", "people.yaml", "path to the people file within the repository")
}

func (o *sourceOptions) validate() error {
	if o.org == "" {
		return fmt.Errorf("--org is required")
	}
	if o.repo == "" {
		return fmt.Errorf("--repo is required")
	}
	return nil
}

func (o *sourceOptions) cfgSrc() ghclient.Source {
	return ghclient.Source{Owner: o.org, Repo: o.repo, Ref: o.branch}
}

func (o *sourceOptions) execContext() ghclient.ExecutionContext {
	return ghclient.ExecutionContext{Org: o.org}
}

func runValidate(args []string) error {
	var opts sourceOptions
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	opts.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := opts.validate(); err != nil {
		return err
	}

	gw, err := newGateway()
	if err != nil {
		return err
	}

	ctx := context.Background()
	if _, err := state.BuildDesired(ctx, gw, opts.execContext(), opts.cfgSrc(), opts.permissionsFile, opts.peopleFile); err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}

	fmt.Println("Configuration is valid!")
	return nil
}
