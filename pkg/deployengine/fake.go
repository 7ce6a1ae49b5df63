package deployengine

import "fmt"

// FakeSync is one SyncTo call observed by Fake.
type FakeSync struct {
	SourceKind ProviderKind
	SourcePath string
	DestKind   ProviderKind
	DestPath   string

	Dest       BaseOptions
	Options    SyncOptions
	Parameters []SyncParameter
}

// Fake is an in-memory Engine that records what it is asked to do.
type Fake struct {
	Rules []Rule

	// Parameters seeds the native parameter collection of every created object
	Parameters []SyncParameter

	// CreateErr, when set, fails every CreateObject call
	CreateErr error

	// SyncErr decides the outcome of each SyncTo call. A nil SyncErr always succeeds.
	SyncErr func(FakeSync) error

	// Summary is returned from succeeding SyncTo calls
	Summary ChangeSummary

	Created []string
	Syncs   []FakeSync
	Closed  int
}

func NewFake(rules ...Rule) *Fake {
	return &Fake{Rules: rules}
}

func (f *Fake) AvailableRules() ([]Rule, error) {
	return append([]Rule(nil), f.Rules...), nil
}

func (f *Fake) CreateObject(kind ProviderKind, path string, opts *BaseOptions) (Object, error) {
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}

	f.Created = append(f.Created, fmt.Sprintf("%s=%s", kind, path))

	params := &SyncParameters{}
	for i := range f.Parameters {
		p := f.Parameters[i]
		if err := params.Add(&p); err != nil {
			return nil, err
		}
	}

	return &fakeObject{engine: f, kind: kind, path: path, params: params}, nil
}

type fakeObject struct {
	engine *Fake
	kind   ProviderKind
	path   string
	params *SyncParameters
}

func (o *fakeObject) SyncParameters() *SyncParameters {
	return o.params
}

func (o *fakeObject) SyncTo(kind ProviderKind, path string, dest *BaseOptions, opts *SyncOptions) (*ChangeSummary, error) {
	s := FakeSync{
		SourceKind: o.kind,
		SourcePath: o.path,
		DestKind:   kind,
		DestPath:   path,
		Dest:       *dest,
		Options:    *opts.Clone(),
	}
	s.Dest.handlers = nil
	for _, p := range o.params.All() {
		s.Parameters = append(s.Parameters, *p)
	}

	o.engine.Syncs = append(o.engine.Syncs, s)

	dest.Tracef(TraceInfo, "Syncing %s=%s to %s=%s", o.kind, o.path, kind, path)

	if o.engine.SyncErr != nil {
		if err := o.engine.SyncErr(s); err != nil {
			dest.Trace(TraceError, err.Error())
			return nil, err
		}
	}

	summary := o.engine.Summary

	return &summary, nil
}

func (o *fakeObject) Close() error {
	o.engine.Closed++
	return nil
}
