// Package compliance is the rules-evaluation core: it resolves which
// regulatory requirements apply to an operator profile, scores stored
// compliance statuses into an overall/mandatory/per-category scorecard with
// a derived risk level and gap list, computes cross-jurisdiction effort
// overlap, and estimates post-mission disposal deadlines.
//
// Every function in this package is pure: no I/O, no clocks, no package
// state. Callers fetch inputs (catalog, profile, status rows) and persist
// outputs themselves.
package compliance
