// Package config defines the format-agnostic run profile along with the
// Loader interface that concrete formats implement.
//
// A Profile is the single source of truth for the app package: it never
// sees HCL types. The HCL implementation lives in the hcl package.
package config
