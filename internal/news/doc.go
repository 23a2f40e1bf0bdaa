// Package news talks to the collaborators that feed the reader: the REST
// backend serving articles, industries and newsletter subscriptions, an
// RSS/Atom alternative for running without a backend, and full-text
// extraction for the "read more" action.
package news
