// Package session tracks the lifecycle of one migration session.
//
// # State Machine
//
// [Apply] is a pure reducer over (session, event): it never mutates its
// inputs and returns a fresh snapshot. Events are poll results, decision
// results, and reset. Legal flow is
//
//	initializing → processing ⇄ awaiting_decision → completed
//
// with error reachable from processing and awaiting_decision. Terminal
// states accept only Reset, and counters never decrease within a session.
//
// # Poller
//
// [Poller] fetches session snapshots on a fixed cadence, strictly
// sequentially: a tick is only scheduled after the previous fetch resolves,
// so snapshots can never land out of order. Polling stops on terminal
// states, on awaiting_decision (handing control to the gateway), and on the
// first fetch error (fail-fast, no retry).
//
// # Gateway
//
// [Gateway] submits human decisions for the song blocking a job. It refuses
// submissions when the held session is not awaiting a decision, so a stale
// UI cannot double-submit.
package session
