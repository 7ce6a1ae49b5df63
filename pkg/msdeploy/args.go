package msdeploy

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/variantdev/webdeploy/pkg/deployengine"
)

const redacted = "********"

type invocation struct {
	sourceKind deployengine.ProviderKind
	sourcePath string
	source     *deployengine.BaseOptions

	destKind deployengine.ProviderKind
	destPath string
	dest     *deployengine.BaseOptions

	sync *deployengine.SyncOptions

	declareParamFile string
	declared         []*deployengine.SyncParameter
	params           []*deployengine.SyncParameter

	verbose bool
}

// args builds the msdeploy command line. With redact set, passwords are masked so that the result can be logged.
func (inv *invocation) args(redact bool) []string {
	var args []string

	if inv.sync.DeleteDestination {
		args = append(args, "-verb:delete")
	} else {
		args = append(args, "-verb:sync")
		args = append(args, "-source:"+provider(inv.sourceKind, inv.sourcePath, inv.source, redact))
	}

	args = append(args, "-dest:"+provider(inv.destKind, inv.destPath, inv.dest, redact))

	// Always passed: msdeploy retries 5 times when -retryAttempts is absent
	args = append(args, "-retryAttempts:"+strconv.Itoa(inv.dest.RetryAttempts))
	args = append(args, "-retryInterval:"+strconv.Itoa(inv.dest.RetryInterval))

	if inv.sync.DoNotDelete {
		args = append(args, "-enableRule:DoNotDeleteRule")
	}
	for _, r := range inv.sync.Rules {
		if inv.sync.DoNotDelete && strings.EqualFold(r.Name, "DoNotDeleteRule") {
			continue
		}
		args = append(args, "-enableRule:"+r.Name)
	}

	if inv.sync.WhatIf {
		args = append(args, "-whatif")
	}

	if inv.declareParamFile != "" {
		args = append(args, "-declareParamFile:"+quote(inv.declareParamFile))
	}
	for _, p := range inv.declared {
		args = append(args, fmt.Sprintf("-declareParam:name=%s,description=%s", quote(p.Name), quote(p.Description)))
	}
	for _, p := range inv.params {
		args = append(args, fmt.Sprintf("-setParam:name=%s,value=%s", quote(p.Name), quote(p.EffectiveValue())))
	}

	if inv.verbose {
		args = append(args, "-verbose")
	}

	return args
}

func provider(kind deployengine.ProviderKind, path string, opts *deployengine.BaseOptions, redact bool) string {
	settings := []string{fmt.Sprintf("%s=%s", kind, quote(path))}

	if opts == nil {
		return settings[0]
	}

	if opts.ComputerName != "" {
		settings = append(settings, "computerName="+quote(opts.ComputerName))
	}
	if opts.UserName != "" {
		settings = append(settings, "userName="+quote(opts.UserName))
	}
	if opts.Password != "" {
		pw := opts.Password
		if redact {
			pw = redacted
		}
		settings = append(settings, "password="+quote(pw))
	}
	if opts.AuthenticationType != "" {
		settings = append(settings, "authType="+quote(opts.AuthenticationType))
	}

	return strings.Join(settings, ",")
}

// quote wraps values msdeploy would otherwise split on. Embedded quotes are doubled.
func quote(v string) string {
	if v != "" && !strings.ContainsAny(v, ` ,"'`) {
		return v
	}
	return `"` + strings.Replace(v, `"`, `""`, -1) + `"`
}
