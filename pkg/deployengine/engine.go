// Package deployengine describes the external web deployment engine webdeploy delegates to.
//
// An Engine creates deployment objects for a source, and a deployment object synchronizes itself to a
// destination. Implementations live in sibling packages: msdeploy drives the msdeploy command line tool,
// localengine writes into a local directory tree. Fake records calls for tests.
package deployengine

type Engine interface {
	RuleRegistry

	CreateObject(kind ProviderKind, path string, opts *BaseOptions) (Object, error)
}

type Object interface {
	SyncParameters() *SyncParameters

	SyncTo(kind ProviderKind, path string, dest *BaseOptions, opts *SyncOptions) (*ChangeSummary, error)

	Close() error
}
