// Package google is the credential store: it manages per-account OAuth2
// tokens for the Google APIs the pipeline talks to (Drive, Gmail, Tasks,
// Calendar).
//
// Tokens are stored per account in the user's cache directory together with
// the scopes granted at authorization time. GetTokenSourceForAccount refreshes
// expired access tokens on demand; a rejected refresh (revoked consent) maps
// to meeting.ErrAuthRequired, which dependent components propagate without
// retrying. CheckPermissions diffs granted scopes against RequiredScopes so
// ingestion and sync can short-circuit remote calls that would fail with a
// 403 anyway.
package google
