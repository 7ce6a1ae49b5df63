package webdeploy

import (
	"fmt"

	"github.com/variantdev/webdeploy/pkg/deployengine"
)

// ApplyParameters overlays the given values onto the engine's native parameters.
// Existing entries are updated in place, unknown names are added. Nothing is removed.
func ApplyParameters(overlay ParameterOverlay, native *deployengine.SyncParameters) error {
	for _, k := range overlay.Keys() {
		v, _ := overlay.Get(k)

		if native.Contains(k) {
			native.Get(k).SetValue(v)
			continue
		}

		p := deployengine.NewSyncParameter(k, k, "", "")
		p.SetValue(v)

		if err := native.Add(p); err != nil {
			return fmt.Errorf("applying parameter %q: %w", k, err)
		}
	}

	return nil
}
