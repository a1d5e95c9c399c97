// Package douyin provides a client for the platform's share-page API.
//
// This package includes:
//   - An HTTP client with the mobile browser header set the API expects
//   - Share link resolution through the platform's redirect chain
//   - Paginated access to a creator's posted-video catalog
//   - Streaming access to video content for download
//   - Filename sanitization for titles and nicknames
//
// The API is the one backing the platform's share pages: anyone with a
// shared profile link can reach it from a mobile browser, no credentials
// involved. Every request waits on the configured rate limiter first.
//
// Example usage:
//
//	client := douyin.NewClient(10*time.Second, limiter, log)
//
//	secUID, _, err := client.ResolveShareLink(ctx, "https://v.douyin.com/AbCdEf/")
//	if err != nil {
//	    // Share link did not lead to a profile
//	}
//
//	page, err := client.FetchCatalogPage(ctx, secUID, 0)
//	for _, item := range page.AwemeList {
//	    stream, length, err := client.OpenVideoStream(ctx, item.PlayURL())
//	    // Stream the video to disk
//	}
package douyin
