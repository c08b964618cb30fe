// Package confloader loads layered configuration with koanf.
//
// Priority (highest to lowest):
//
//  1. Environment variables (TSQR_ prefix)
//  2. YAML configuration file
//  3. Defaults supplied by the caller
//
// Environment names are matched against the keys already known from the
// defaults, so TSQR_POS_MAX_AGE resolves to pos.max_age rather than
// pos.max.age. Unknown names fall back to treating every underscore as a
// level separator.
//
// Watcher reports writes to the configuration file so that hot settings
// such as the log level can be reapplied without a restart.
package confloader
