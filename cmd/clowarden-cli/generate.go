package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/clowarden/clowarden/pkg/cfgloader"
	"github.com/clowarden/clowarden/pkg/ghclient"
	"github.com/clowarden/clowarden/pkg/state"
)

type generateOptions struct {
	org        string
	outputFile string
}

func (o *generateOptions) register(fs *flag.FlagSet) {
	fs.StringVar(&o.org, "org", "", "organization name (required)")
	fs.StringVar(&o.outputFile, "output-file", "", "path to write the generated permissions file to (required)")
}

func (o *generateOptions) validate() error {
	if o.org == "" {
		return fmt.Errorf("--org is required")
	}
	if o.outputFile == "" {
		return fmt.Errorf("--output-file is required")
	}
	return nil
}

// runGenerate dumps an organization's actual platform state into a
// permissions-file-compatible document, per spec.md §6.
func runGenerate(args []string) error {
	var opts generateOptions
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
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
	ec := ghclient.ExecutionContext{Org: opts.org}

	actual, err := state.BuildActual(ctx, gw, ec, state.DefaultOuterConcurrency)
	if err != nil {
		return fmt.Errorf("error building actual state: %w", err)
	}

	repos := make([]cfgloader.RepoConfig, len(actual.Repositories))
	for i, r := range actual.Repositories {
		repos[i] = cfgloader.RepoConfig{
			Name:          r.Name,
			Teams:         r.Teams,
			Collaborators: r.Collaborators,
			Visibility:    r.Visibility,
		}
	}

	out, err := cfgloader.Marshal(actual.Directory, repos)
	if err != nil {
		return fmt.Errorf("error marshaling configuration: %w", err)
	}

	if err := os.WriteFile(opts.outputFile, out, 0o644); err != nil {
		return fmt.Errorf("error writing %s: %w", opts.outputFile, err)
	}

	fmt.Printf("Configuration written to %s\n", opts.outputFile)
	return nil
}
