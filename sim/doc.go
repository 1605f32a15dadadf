// Package sim contains the scheduling layer around the decision workflow: a
// supervising loop that triggers cycles on a timer (or acts as a heartbeat in
// event mode) and the concurrency guard that keeps at most one cycle in
// flight. Triggers that arrive while a cycle is running are dropped, never
// queued; drops are counted for observability.
package sim
