// Package sim provides an in-memory simulated SCPI instrument implementing
// transport.Binding, for tests that need a full driver stack without
// hardware. The simulator keeps a command-path keyed state store, answers
// queries from it, models the SYST:ERR? error queue, and supports setup
// save/restore and scripted value clamping.
package sim
