// Package domain holds the shared ticker model, the websocket event and
// command vocabulary, and the interfaces between the core and its
// collaborators. It has no dependencies on the rest of the application.
package domain
