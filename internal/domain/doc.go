// Package domain contains the core model for readprep: samples, manifests,
// tool parameters, scratch workspaces, tool plans and run reports.
//
// The domain is tool- and storage-agnostic: it does not depend on YAML parsing,
// gzip, os/exec or the filesystem. Infra/adapters map into/from these types.
package domain
