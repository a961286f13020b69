// Package preflight provides readiness checks for the filesystem paths and
// the hosted API that FieldSync depends on.
//
// These checks run in two contexts:
//   - The daemon runs RunAll at startup. A failed local check (data dir,
//     disk space) aborts startup; a failed remote check does not, because
//     starting offline is this daemon's normal condition.
//   - The CLI "fieldsync status" command uses the individual check functions
//     to display health alongside the queue summary.
package preflight
