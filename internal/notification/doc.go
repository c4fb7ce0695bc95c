// Package notification implements the observer-based fan-out triggered by
// entity mutations. A Registry holds observers registered at startup and
// dispatches each event to all of them concurrently; delivery is
// best-effort and never affects the outcome of the mutation that produced
// the event.
package notification
