package webdeploy

import (
	"strings"

	"github.com/variantdev/webdeploy/pkg/deployengine"
)

const (
	AuthTypeBasic = "basic"

	AppOfflineRuleName = "AppOffline"
)

// SourceOptions are the options of the local end. The engine infers everything else from the provider.
func SourceOptions() *deployengine.BaseOptions {
	return &deployengine.BaseOptions{}
}

func DestinationOptions(s Settings) *deployengine.BaseOptions {
	return &deployengine.BaseOptions{
		AuthenticationType: AuthTypeBasic,
		ComputerName:       s.PublishURL,
		UserName:           s.Username,
		Password:           s.Password,
		RetryAttempts:      s.RetryAttempts,
		RetryInterval:      s.RetryInterval,
	}
}

func SyncOptions(s Settings, registry deployengine.RuleRegistry) (*deployengine.SyncOptions, error) {
	opts := &deployengine.SyncOptions{
		DoNotDelete: s.EnableDoNotDeleteRule,
		WhatIf:      s.ShowWhatIf,
	}

	if s.EnableAppOfflineRule {
		rule, err := RuleByName(registry, AppOfflineRuleName)
		if err != nil {
			return nil, err
		}
		opts.Rules = append(opts.Rules, rule)
	}

	return opts, nil
}

// Translate derives the three option bundles of a deployment. It has no side effects.
func Translate(s Settings, registry deployengine.RuleRegistry) (*deployengine.BaseOptions, *deployengine.BaseOptions, *deployengine.SyncOptions, error) {
	sync, err := SyncOptions(s, registry)
	if err != nil {
		return nil, nil, nil, err
	}

	return SourceOptions(), DestinationOptions(s), sync, nil
}

// RuleByName looks the rule up case-insensitively. Exactly one rule must match.
func RuleByName(registry deployengine.RuleRegistry, name string) (deployengine.Rule, error) {
	available, err := registry.AvailableRules()
	if err != nil {
		return deployengine.Rule{}, configErrorf("listing available rules: %w", err)
	}

	var found []deployengine.Rule
	for _, r := range available {
		if strings.EqualFold(r.Name, name) {
			found = append(found, r)
		}
	}

	switch len(found) {
	case 0:
		return deployengine.Rule{}, configErrorf("rule %q is not provided by the deployment engine", name)
	case 1:
		return found[0], nil
	}

	return deployengine.Rule{}, configErrorf("rule %q is ambiguous: the deployment engine provides %d matches", name, len(found))
}

// CreateVariant is the sync options used to place the offline page: nothing is deleted on the destination.
// The engine's own AppOffline rule is dropped as the offline page is what takes the site down.
func CreateVariant(opts *deployengine.SyncOptions) *deployengine.SyncOptions {
	v := withoutRule(opts, AppOfflineRuleName)
	v.DeleteDestination = false
	v.DoNotDelete = true
	return v
}

// DeleteVariant is the sync options used to remove the offline page from the destination.
func DeleteVariant(opts *deployengine.SyncOptions) *deployengine.SyncOptions {
	v := withoutRule(opts, AppOfflineRuleName)
	v.DoNotDelete = false
	v.DeleteDestination = true
	return v
}

func withoutRule(opts *deployengine.SyncOptions, name string) *deployengine.SyncOptions {
	v := opts.Clone()
	v.Rules = v.Rules[:0]
	for _, r := range opts.Rules {
		if !strings.EqualFold(r.Name, name) {
			v.Rules = append(v.Rules, r)
		}
	}
	return v
}
