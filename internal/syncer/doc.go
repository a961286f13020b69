// Package syncer flushes the capture queue to the hosted API. It owns the
// decision of when to sync (reconnect edge, manual request, periodic timer)
// and drives each outstanding item through its uploader, one at a time, with
// at most one run in flight.
package syncer
