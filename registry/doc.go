// Package registry defines the gem index contract the resolver depends on
// and provides an HTTP client implementation speaking the rubygems.org
// versions API.
//
// The resolver only sees the Client interface: given a gem name it receives
// the published releases, newest first, each carrying its platform tag and
// the requirements its version declares. Transport failures are reported as
// ErrUnavailable (transient, retryable by the caller) and unknown names as
// ErrNotFound (terminal for that name).
package registry
