// Package capture owns the record-side data model: the session, its
// append-only list of finalized calls, and the engine that tracks calls
// while they are in flight.
//
// A call is pending from Begin until Finalize. Pending calls are keyed by
// tracking ID and are invisible to replay; once finalized a call is
// immutable and appended to the session. All bookkeeping anomalies
// (duplicate begin, events after finalize, double finalize) are recovered
// locally with a warning and never break the client-facing stream.
package capture
