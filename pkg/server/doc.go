// Package server exposes the release board over HTTP.
//
// # Cache Gate
//
// [Gate] is the single board endpoint. For each request it derives a cache
// key from the URL with the force parameter removed, then:
//
//   - serves a stored response younger than the fresh window (X-Cache: HIT)
//   - serves a stored response inside the stale window and refreshes it in
//     the background, once per key (X-Cache: STALE)
//   - otherwise runs the pipeline, answers, and stores the result without
//     waiting for the store (X-Cache: MISS, or BYPASS when force is present)
//
// Failures are answered with a plain-text error and are never stored.
// A Gate built from an invalid configuration rejects every request with 500
// before any upstream call.
//
// # Router
//
// [NewServer] mounts the gate on "/" next to "/healthz" and "/metrics" on a
// chi router with request IDs, panic recovery and access logging.
package server
