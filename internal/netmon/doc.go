// Package netmon derives the boolean online/offline signal the sync scheduler
// keys off. Reachability is probe-confirmed; kernel netlink events only make
// the next probe happen sooner.
package netmon
