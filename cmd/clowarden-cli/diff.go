package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/clowarden/clowarden/pkg/state"
)

func runDiff(args []string) error {
	var opts sourceOptions
	fs := flag.NewFlagSet("diff", flag.ContinueOnError)
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
	ec := opts.execContext()

	actual, err := state.BuildActual(ctx, gw, ec, state.DefaultOuterConcurrency)
	if err != nil {
		return fmt.Errorf("error building actual state: %w", err)
	}
	desired, err := state.BuildDesired(ctx, gw, ec, opts.cfgSrc(), opts.permissionsFile, opts.peopleFile)
	if err != nil {
		return fmt.Errorf("error building desired state: %w", err)
	}

	changes := state.Diff(actual, desired)
	if len(changes.Directory) == 0 && len(changes.Repositories) == 0 {
		fmt.Println("No changes detected.")
		return nil
	}

	for _, c := range changes.Directory {
		fmt.Println("-", c.Describe())
	}
	for _, c := range changes.Repositories {
		fmt.Println("-", c.Describe())
	}
	return nil
}
