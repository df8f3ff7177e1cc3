package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/matzehuels/releaseboard/pkg/render"
)

// forceParam is the query parameter that bypasses the cache lookup.
const forceParam = "force"

// Entry is a stored response.
type Entry struct {
	Format       string    `json:"format"`
	ContentType  string    `json:"content_type"`
	CacheControl string    `json:"cache_control"`
	Body         []byte    `json:"body"`
	StoredAt     time.Time `json:"stored_at"`
}

// Encode serializes the entry for a cache backend.
func (e Entry) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEntry parses a stored entry.
func DecodeEntry(data []byte) (Entry, error) {
	var e Entry
	err := json.Unmarshal(data, &e)
	return e, err
}

// CacheKey returns the normalized request URL used to address the cache:
// scheme://host/path followed by the query with the force parameter removed
// and the remaining parameters sorted. Requests that differ only in the
// presence or value of force share a key.
func CacheKey(r *http.Request) string {
	path := r.URL.EscapedPath()
	if path == "" {
		path = "/"
	}
	key := render.RequestScheme(r) + "://" + r.Host + path

	q := r.URL.Query()
	q.Del(forceParam)
	if len(q) > 0 {
		key += "?" + q.Encode()
	}
	return key
}

// hasForce reports whether the bypass parameter is present, with or
// without a value.
func hasForce(u *url.URL) bool {
	return u.Query().Has(forceParam)
}
