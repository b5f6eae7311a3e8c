// Package config defines the format-agnostic model of a pipeline definition,
// along with the Loader interface implemented by format-specific packages.
//
// The `config.Model` is the single input of the `builder` package, which turns
// it into steps and connectors on a workflow controller. Concrete loaders,
// such as for HCL, are provided in separate packages.
package config
