// Package scpi provides the command channel every capability group talks
// through: terminated command sends, delimited query round trips, and
// length-prefixed binary block transfers over one transport binding.
//
// A Channel guarantees strict ordering: commands and queries issued on one
// channel reach the instrument in call order with no interleaving, because
// instrument firmware is single-threaded and stateful (selecting a channel
// and then querying its value is only meaningful if nothing runs in
// between). The channel is synchronous and blocking; a query completes,
// times out, or the process tears down.
//
// After state-changing commands the channel polls the instrument's error
// queue (SYST:ERR?) and surfaces faults as InstrumentError, so callers can
// tell "the instrument rejected this setting" apart from "the link is
// down". The poll runs after every non-query command by default; disable it
// through Config.PollErrorQueue for latency-critical scripts.
package scpi
