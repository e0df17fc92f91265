// Package config assembles the pipeline configuration from built-in
// defaults, an optional YAML file, and COMPTRADE_* environment
// variables, in increasing precedence. It owns no parameter semantics:
// ranges are validated by the packages the values are handed to.
package config
