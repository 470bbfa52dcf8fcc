package common

// Wire-level names shared by the server resources and the client proxy.
const (
	// AuthorizationHeaderName carries "Bearer <jwt>".
	AuthorizationHeaderName = "Authorization"
	// IfMatchHeaderName carries the caller's last-known concurrency token
	// on update and delete requests.
	IfMatchHeaderName = "If-Match"
	// ETagHeaderName carries the current concurrency token on single-entry
	// responses.
	ETagHeaderName = "ETag"
	// SlugHeaderName suggests an identity for an inserted record.
	SlugHeaderName = "Slug"

	// StyleQueryParam selects the representation style of a response.
	StyleQueryParam = "style"

	EntryContentType = "application/atom+xml;type=entry"
	FeedContentType  = "application/atom+xml;type=feed"
)
