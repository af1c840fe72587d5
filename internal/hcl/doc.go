// Package hcl provides the concrete HCL implementation of the config.Loader
// interface. It owns file discovery, parsing, expression evaluation against
// the process environment, and translation into the format-agnostic
// config.Profile.
package hcl
