// Package services talks to the signage management API.
//
// # Client
//
// [Client] implements [Service] over HTTP. Every request:
//   - waits on an optional [rate.Limiter] so batch commands do not flood the API
//   - carries a bearer token through an [oauth2.Transport] backed by a static token source
//   - honors the caller's context for cancellation
//
// Responses are XML. The client decodes them with package xmljson and maps the tree through package adapter,
// so callers receive [models.Device], [models.Playlist], and friends and never see namespaced keys.
//
// # Error Handling
//
// Any non-2xx response becomes an [*APIError] that unwraps to [shared.ErrAPIRequest] and carries the server's free-text
// message when one is present. Undecodable bodies wrap [shared.ErrMalformedResponse]. Nothing is retried.
//
// # Raw Access
//
// [Client.Get] returns an [APIResponse] for the `signx api get` command, decoding XML or JSON bodies when possible.
package services
