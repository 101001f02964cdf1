// Package preflight provides readiness checks for the filesystem paths,
// history database, and upstreams that wesline depends on.
//
// These checks run in two contexts:
//   - "wesline preflight" runs RunAll and exits non-zero when any check fails.
//   - "wesline status" uses the individual checks to describe a stopped
//     daemon's environment.
//
// Checks for disabled features are skipped.
package preflight
