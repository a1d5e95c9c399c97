package douyin

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	errs "dyfetch/pkg/errors"
)

const (
	// BaseURL is the host that serves the share-page API
	BaseURL = "https://www.iesdouyin.com"

	// CatalogEndpoint is the endpoint for a creator's posted videos
	CatalogEndpoint = "/web/api/v2/aweme/post/"

	// SecUIDParam is the query parameter carrying the creator ID
	SecUIDParam = "sec_uid"

	// DefaultPageSize is the default number of items requested per catalog page
	DefaultPageSize = 21

	// MaxPageSize is the largest count the catalog API honors per page
	MaxPageSize = 50
)

// forbiddenFilenameChars cannot appear in file or directory names on every
// filesystem the tool writes to. They are stripped, not replaced.
const forbiddenFilenameChars = `/\:*?"<>|`

// GetCatalogURL constructs the URL for one page of a creator's posted videos
func GetCatalogURL(secUID string, cursor int64, count int) string {
	return catalogURL(BaseURL, secUID, cursor, count)
}

// catalogURL builds the catalog page URL against an arbitrary base, which
// is how the client honors SetBaseURL.
func catalogURL(base, secUID string, cursor int64, count int) string {
	if count <= 0 {
		count = DefaultPageSize
	} else if count > MaxPageSize {
		count = MaxPageSize
	}

	params := url.Values{}
	params.Set(SecUIDParam, secUID)
	params.Set("count", strconv.Itoa(count))
	params.Set("max_cursor", strconv.FormatInt(cursor, 10))

	return fmt.Sprintf("%s%s?%s", base, CatalogEndpoint, params.Encode())
}

// ExtractSecUID reads the creator ID from a resolved profile URL. Share
// links redirect to the profile page, which carries the ID in its query
// string.
func ExtractSecUID(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errs.Newf(errs.ErrorTypeResolve, 0, "unparseable profile URL %q: %v", rawURL, err)
	}

	secUID := u.Query().Get(SecUIDParam)
	if secUID == "" {
		return "", errs.Newf(errs.ErrorTypeResolve, 0, "no %s parameter in resolved URL %q", SecUIDParam, rawURL)
	}

	return secUID, nil
}

// IsValidLink checks whether link has the shape of a shared profile link.
// Only the shape is checked here; whether it resolves is the remote end's
// decision.
func IsValidLink(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// SanitizeFilename strips the forbidden filesystem characters from a title
// or nickname and trims surrounding whitespace. Names that would resolve
// to the enclosing directory or its parent ("." and "..") come back empty
// too; callers fall back to FallbackTitle or the creator ID when the
// result is empty.
func SanitizeFilename(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(forbiddenFilenameChars, r) {
			return -1
		}
		return r
	}, name)
	cleaned = strings.TrimSpace(cleaned)

	// A remote-supplied ".." would climb out of the output root through
	// filepath.Join; "." would collapse onto the directory itself.
	if cleaned == "." || cleaned == ".." {
		return ""
	}

	return cleaned
}

// FallbackTitle names an item whose title sanitized away to nothing. The
// format has second granularity: two untitled items normalized within the
// same second share a name, and the second is treated as a duplicate.
func FallbackTitle(t time.Time) string {
	return "douyin_" + t.Format("20060102_150405")
}
