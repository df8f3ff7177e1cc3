package cache

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Open returns the backend described by rawURL:
//
//	""  or "memory"            MemoryCache
//	"none"                     NullCache
//	"file" or "file:///dir"    FileCache (bare "file" uses DefaultDir)
//	"redis://..." "rediss://"  RedisCache
//	"mongodb://..." "mongodb+srv://..."  MongoCache in database
func Open(ctx context.Context, rawURL, database string) (Cache, error) {
	raw := strings.TrimSpace(rawURL)
	switch raw {
	case "", "memory":
		return NewMemoryCache(), nil
	case "none", "off":
		return NewNullCache(), nil
	case "file":
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		return NewFileCache(dir)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse cache url: %w", err)
	}
	switch u.Scheme {
	case "memory":
		return NewMemoryCache(), nil
	case "file":
		dir := u.Path
		if dir == "" {
			dir = u.Opaque
		}
		if dir == "" {
			if dir, err = DefaultDir(); err != nil {
				return nil, err
			}
		}
		return NewFileCache(dir)
	case "redis", "rediss":
		return NewRedisCache(ctx, raw)
	case "mongodb", "mongodb+srv":
		if database == "" {
			database = "releaseboard"
		}
		return NewMongoCache(ctx, raw, database)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, u.Scheme)
	}
}

// Describe returns rawURL with any password removed, for logging.
func Describe(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.User == nil {
		return rawURL
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
