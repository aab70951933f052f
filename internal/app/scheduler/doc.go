// Package scheduler serializes transcription work behind a single background worker.
//
// Callers submit a Job carrying a normalized input file. The Queue keeps jobs in
// submission order and the Worker executes them strictly one at a time, resolving
// each job's Completion exactly once and deleting its input afterwards, whatever the
// outcome. Transcribe waits on the Completion for at most the configured deadline; a
// timed out job is not aborted and still runs to completion, so input cleanup happens
// exactly once whether or not anyone is still waiting.
//
// A Scheduler is started once and stopped once. Stopping cancels the job in flight
// and fails every pending job with ErrSchedulerStopped after removing its input.
package scheduler
