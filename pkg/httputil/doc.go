// Package httputil provides retry helpers for upstream API clients.
//
// [Retry] runs an operation up to a fixed number of attempts with
// exponential backoff. Only errors wrapped in [RetryableError] are retried;
// anything else is returned immediately, so callers decide per failure
// whether another attempt can help. [IsTransientStatus] names the HTTP
// statuses that usually clear up on their own.
//
//	err := httputil.Retry(ctx, 3, 500*time.Millisecond, func() error {
//	    resp, err := fetch()
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    return process(resp)
//	})
package httputil
