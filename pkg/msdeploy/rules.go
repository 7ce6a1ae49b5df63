package msdeploy

import (
	"fmt"

	"github.com/variantdev/webdeploy/pkg/deployengine"
	"github.com/variantdev/webdeploy/pkg/semver"
)

type builtinRule struct {
	deployengine.Rule

	// Since is the first Web Deploy version shipping the rule
	Since string
}

var builtinRules = []builtinRule{
	{
		Rule:  deployengine.Rule{Name: "DoNotDeleteRule", Description: "Blocks deletions of objects on the destination"},
		Since: "1.0",
	},
	{
		Rule:  deployengine.Rule{Name: "SkipNewerFilesRule", Description: "Skips updating destination files newer than the source"},
		Since: "1.0",
	},
	{
		Rule:  deployengine.Rule{Name: "AppOffline", Description: "Takes the application offline during the sync by placing App_Offline.htm"},
		Since: "3.0",
	},
}

func availableRules(version string) ([]deployengine.Rule, error) {
	var rules []deployengine.Rule

	for _, r := range builtinRules {
		ok, err := semver.AtLeast(version, r.Since)
		if err != nil {
			return nil, fmt.Errorf("checking availability of rule %q: %w", r.Name, err)
		}

		if ok {
			rules = append(rules, r.Rule)
		}
	}

	return rules, nil
}
