// Package workspace manages the scratch directory a generation run writes translated
// template directories to, in either ephemeral or persistent mode.
//
// Ephemeral mode creates a fresh timestamped directory (e.g. pomosite-20251214-122336-…)
// and removes it when the run ends.
//
// Persistent mode uses a fixed directory that survives the run, so translated templates
// can be inspected after a build.
package workspace
