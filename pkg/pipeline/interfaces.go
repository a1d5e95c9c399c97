package pipeline

import (
	"context"
	"io"

	"dyfetch/pkg/douyin"
)

// CatalogClient defines the platform operations the pipeline needs. The
// douyin.Client satisfies it; tests substitute fakes.
type CatalogClient interface {
	ResolveShareLink(ctx context.Context, link string) (secUID string, finalURL string, err error)
	FetchCatalogPage(ctx context.Context, secUID string, cursor int64) (*douyin.CatalogPage, error)
	OpenVideoStream(ctx context.Context, url string) (io.ReadCloser, int64, error)
}
