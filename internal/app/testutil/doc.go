// Package testutil provides test doubles shared across the whisper-api packages.
//
//   - MockTranscriber: testify mock of api.Transcriber for expectation-driven tests.
//   - FakeTranscriber: scripted api.Transcriber with per-file latency, response and error,
//     call ordering and concurrency tracking.
//   - FakeRunner: scripted command.Runner that records invocations and can create the
//     artifacts a real binary would have produced.
package testutil
