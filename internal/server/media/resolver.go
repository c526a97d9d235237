// Package media names uploaded profile images and stores them in S3
// compatible object storage.
package media

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Resolver derives storage keys and public addresses for uploads. The base
// URL and prefix come from configuration.
type Resolver struct {
	baseURL string
	prefix  string
	now     func() time.Time
}

func NewResolver(baseURL, prefix string) *Resolver {
	return &Resolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		prefix:  strings.Trim(prefix, "/"),
		now:     time.Now,
	}
}

// UniqueName returns a collision-resistant file name that keeps the
// extension of the original upload.
func (r *Resolver) UniqueName(original string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(original)))
	return fmt.Sprintf("%d-%s%s", r.now().UnixMilli(), uuid.NewString(), ext)
}

// Key places name under the configured prefix.
func (r *Resolver) Key(name string) string {
	if r.prefix == "" {
		return name
	}
	return path.Join(r.prefix, name)
}

// URL is the externally reachable address of key.
func (r *Resolver) URL(key string) string {
	return r.baseURL + "/" + key
}

// Resolve is UniqueName, Key and URL in one step.
func (r *Resolver) Resolve(original string) (key, url string) {
	key = r.Key(r.UniqueName(original))
	return key, r.URL(key)
}
