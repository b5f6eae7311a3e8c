// Package plugin defines the capability contract between the pipeline core and
// the concrete step implementations (readers, writers, actions, detectors).
//
// Every plugin declares a Kind. The kind is a tag that the execution
// coordinator dispatches on; a step resolves the capability interface that
// matches its kind once, at creation time, so nothing downstream needs to
// inspect plugin types at run time.
//
// The Registry maps plugin names to factories. Built-in and test plugins are
// added through the Module interface, mirroring how the rest of the
// application is composed.
package plugin
