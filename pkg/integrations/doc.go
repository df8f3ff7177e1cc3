// Package integrations provides HTTP plumbing for upstream API clients.
//
// # Overview
//
// The [Client] type wraps net/http with the behavior every upstream client
// needs: default headers (authentication, Accept, User-Agent), a per-request
// timeout, status classification and JSON decoding. API-specific clients live
// in subpackages:
//
//   - [jira]: project version listing for the release board
//
// # Errors
//
// Failures are classified so callers can decide what is fatal:
//
//   - [*StatusError]: the server answered with a non-2xx status
//     (unwraps to [ErrNotFound] or [ErrStatus])
//   - [ErrNetwork]: the request never produced a response
//   - [ErrDecode]: the response body was not the expected JSON
//
// Requests and responses are reported to [observability.HTTP] hooks.
//
// [jira]: github.com/matzehuels/releaseboard/pkg/integrations/jira
// [observability.HTTP]: github.com/matzehuels/releaseboard/pkg/observability.HTTP
package integrations
