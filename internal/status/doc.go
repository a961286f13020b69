// Package status projects queue and connectivity state into the compact
// shape a status bar or CLI renders: one mode word, an outstanding count,
// and the items grouped by disposition.
package status
