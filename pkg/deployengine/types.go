package deployengine

import (
	"fmt"
	"time"
)

// ProviderKind names the content layout a deployment object is read from or written to.
type ProviderKind string

const (
	// IisApp is an IIS application: a site path such as "mysite" or "mysite/app".
	IisApp ProviderKind = "iisApp"
	// ContentPath is a single file or directory addressed by path.
	ContentPath ProviderKind = "contentPath"
)

type TraceLevel int

const (
	TraceError TraceLevel = iota
	TraceWarning
	TraceInfo
	TraceVerbose
)

func (l TraceLevel) String() string {
	switch l {
	case TraceError:
		return "Error"
	case TraceWarning:
		return "Warning"
	case TraceInfo:
		return "Info"
	case TraceVerbose:
		return "Verbose"
	}
	return fmt.Sprintf("TraceLevel(%d)", int(l))
}

type TraceEvent struct {
	Level   TraceLevel
	Message string
}

type TraceHandler func(TraceEvent)

// BaseOptions are the connection options of either end of a sync.
// An empty BaseOptions describes the local machine.
type BaseOptions struct {
	AuthenticationType string
	ComputerName       string
	UserName           string
	Password           string

	RetryAttempts int
	// RetryInterval is in milliseconds
	RetryInterval int

	handlers []TraceHandler
}

// OnTrace subscribes h to the trace events raised while these options are in use.
// Subscriptions live as long as the options do.
func (o *BaseOptions) OnTrace(h TraceHandler) {
	o.handlers = append(o.handlers, h)
}

func (o *BaseOptions) Trace(level TraceLevel, msg string) {
	ev := TraceEvent{Level: level, Message: msg}
	for _, h := range o.handlers {
		h(ev)
	}
}

func (o *BaseOptions) Tracef(level TraceLevel, format string, args ...interface{}) {
	o.Trace(level, fmt.Sprintf(format, args...))
}

func (o *BaseOptions) RetryDelay() time.Duration {
	return time.Duration(o.RetryInterval) * time.Millisecond
}

// IsLocal reports whether the options point at the local machine.
func (o *BaseOptions) IsLocal() bool {
	return o.ComputerName == ""
}

type Rule struct {
	Name        string
	Description string
}

type RuleRegistry interface {
	AvailableRules() ([]Rule, error)
}

type SyncOptions struct {
	DoNotDelete       bool
	WhatIf            bool
	DeleteDestination bool
	Rules             []Rule
}

func (o *SyncOptions) Clone() *SyncOptions {
	c := *o
	c.Rules = append([]Rule(nil), o.Rules...)
	return &c
}

// HasRule reports whether a rule with the given name is enabled. Names compare case-insensitively.
func (o *SyncOptions) HasRule(name string) bool {
	for _, r := range o.Rules {
		if equalFold(r.Name, name) {
			return true
		}
	}
	return false
}

// ChangeSummary is what the engine reports after a sync.
type ChangeSummary struct {
	ObjectsAdded     int
	ObjectsUpdated   int
	ObjectsDeleted   int
	ParameterChanges int
	BytesCopied      int64
}

func (s *ChangeSummary) TotalChanges() int {
	return s.ObjectsAdded + s.ObjectsUpdated + s.ObjectsDeleted + s.ParameterChanges
}

func (s *ChangeSummary) String() string {
	return fmt.Sprintf("Total changes: %d (%d added, %d deleted, %d updated, %d parameters changed, %d bytes copied)",
		s.TotalChanges(), s.ObjectsAdded, s.ObjectsDeleted, s.ObjectsUpdated, s.ParameterChanges, s.BytesCopied)
}
