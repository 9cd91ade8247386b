// Package config provides the tool configuration populated from CLI flags and
// the provisioning file that describes the sites to build. The provisioning
// file is validated against an embedded JSON schema and then against the
// cross-reference rules that a schema cannot express.
package config
