package assets

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	perrors "github.com/abgdnv/catalog/internal/errors"
)

// DefaultPublicHost is the virtual-hosted S3 endpoint used in image URLs.
const DefaultPublicHost = "s3.amazonaws.com"

const fallbackFilename = "upload"

// Namer builds object keys for uploads and derives them back from image URLs.
// A key is "{prefix}/{token}-{filename}"; the prefix is omitted when empty.
type Namer struct {
	prefix   string
	newToken func() string
}

// NewNamer returns a Namer that places objects under prefix and makes
// each key unique with a token from newToken.
func NewNamer(prefix string, newToken func() string) *Namer {
	return &Namer{
		prefix:   strings.Trim(prefix, "/"),
		newToken: newToken,
	}
}

// Prefix returns the normalized key prefix.
func (n *Namer) Prefix() string {
	return n.prefix
}

// NewKey returns a fresh key for a file uploaded as filename.
func (n *Namer) NewKey(filename string) string {
	return n.withPrefix(n.newToken() + "-" + SanitizeFilename(filename))
}

// KeyFromURL derives the key of the object an image URL points at: the last
// path segment of the URL under the configured prefix. It inverts NewKey for
// URLs built by ObjectURL, and also resolves URLs that omit the prefix.
func (n *Namer) KeyFromURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", perrors.ErrInvalidAssetURL, rawURL, err)
	}
	name := u.Path[strings.LastIndex(u.Path, "/")+1:]
	if name == "" {
		return "", fmt.Errorf("%w: %q has no object name", perrors.ErrInvalidAssetURL, rawURL)
	}
	return n.withPrefix(name), nil
}

func (n *Namer) withPrefix(name string) string {
	if n.prefix == "" {
		return name
	}
	return n.prefix + "/" + name
}

// SanitizeFilename reduces a client-supplied filename to a base name without
// path separators, so the generated name is always the last segment of the key.
func SanitizeFilename(filename string) string {
	name := strings.ReplaceAll(filename, `\`, "/")
	name = strings.TrimSpace(path.Base(name))
	if name == "" || name == "." || name == "/" || name == ".." {
		return fallbackFilename
	}
	return name
}

// PublicBaseURL returns the URL objects of bucket are served from.
// A non-empty override (MinIO, LocalStack, CDN) wins over "https://{bucket}.{host}".
func PublicBaseURL(bucket, host, override string) string {
	if override != "" {
		return strings.TrimRight(override, "/")
	}
	if host == "" {
		host = DefaultPublicHost
	}
	return "https://" + bucket + "." + host
}

// ObjectURL joins base and key, escaping every key segment.
func ObjectURL(base, key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return base + "/" + strings.Join(segments, "/")
}
