// Package service implements the code-hosting service handler (spec.md
// §4.6): the two public operations a job acts on, get_changes_summary and
// reconcile, built on top of pkg/state's build/diff primitives.
package service

import (
	"time"

	"github.com/clowarden/clowarden/pkg/ghclient"
	"github.com/clowarden/clowarden/pkg/state"
)

// Handler is the single code-hosting service. A deployment may configure
// one Handler per organization, or share one across organizations that
// all use the same installation.
type Handler struct {
	Gateway ghclient.Gateway

	// Now overrides the clock used to stamp AppliedChange.AppliedAt. Nil
	// uses time.Now.
	Now func() time.Time
}

// NewHandler returns a Handler backed by gw.
func NewHandler(gw ghclient.Gateway) *Handler {
	return &Handler{Gateway: gw}
}

// BaseRefConfigStatus reports whether the base ref's configuration could
// be loaded and validated at all, independent of what it says.
type BaseRefConfigStatus string

const (
	BaseRefConfigValid   BaseRefConfigStatus = "valid"
	BaseRefConfigInvalid BaseRefConfigStatus = "invalid"
)

// ChangesSummary is the result of get_changes_summary: the changes a
// head ref's configuration would apply relative to the base ref, plus
// whatever user-validation problems were found in that diff.
type ChangesSummary struct {
	BaseRefConfigStatus BaseRefConfigStatus
	Changes             state.ChangeSet
	ValidationErrors    error
}

// AppliedChange is one change as recorded after an apply attempt.
type AppliedChange struct {
	Kind        string
	Description string
	Extra       map[string]any
	Keywords    []string
	Error       string
	AppliedAt   time.Time
}

// ChangesApplied is the result of reconcile: every directory and
// repository change that was attempted, in application order, along with
// whatever error each individual attempt produced.
type ChangesApplied struct {
	Directory    []AppliedChange
	Repositories []AppliedChange
}

// HasErrors reports whether any applied change recorded an error.
func (c ChangesApplied) HasErrors() bool {
	for _, a := range c.Directory {
		if a.Error != "" {
			return true
		}
	}
	for _, a := range c.Repositories {
		if a.Error != "" {
			return true
		}
	}
	return false
}

// Org carries the per-organization configuration get_changes_summary and
// reconcile need to locate the configuration source on the platform, per
// spec.md §6's organization list entry.
type Org struct {
	Name            string
	InstallationID  int64
	RepositoryOwner string
	RepositoryName  string
	Branch          string
	PermissionsPath string
	PeoplePath      string
}

// baseSource returns the Source pointing at org's configured branch.
func (o Org) baseSource() ghclient.Source {
	return ghclient.Source{
		InstallationID: o.InstallationID,
		Owner:          o.RepositoryOwner,
		Repo:           o.RepositoryName,
		Ref:            o.Branch,
	}
}

func (o Org) executionContext() ghclient.ExecutionContext {
	return ghclient.ExecutionContext{InstallationID: o.InstallationID, Org: o.Name}
}
