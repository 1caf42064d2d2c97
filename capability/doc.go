// Package capability defines the capability interface and the registry
// that maps capability names to factories.
//
// # Capability
//
// A [Capability] is a named, pluggable action handler. Workflow nodes
// reference a capability by name and supply an action verb plus string
// fields that the capability interprets:
//
//	type DesktopControl struct{ app *uia.Application }
//
//	func (d *DesktopControl) Execute(ctx context.Context, action string, fields map[string]string) (capability.Result, error) {
//	    switch action {
//	    case "open":
//	        ...
//	    }
//	}
//
// Capabilities may be stateful: the engine creates at most one instance
// per capability name per run, so an "open" step can establish state that
// later "click"/"type" steps reuse. Instances are never shared across runs.
//
// # Registry
//
// [Registry] maps capability names to [Factory] functions. Populate it once
// at startup; the engine treats it as read-only afterwards:
//
//	reg.Register("desktop-control", "Click/type on desktop applications",
//	    func() capability.Capability { return &DesktopControl{} })
//
// Duplicate names overwrite silently — last registration wins. This is
// intentional: plugin load order is not guaranteed, and treating a
// re-registration as an error would make startup order-sensitive.
package capability
