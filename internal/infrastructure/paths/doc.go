// Package paths resolves filesystem paths and URLs against the application root.
//
// The root directory is passed in explicitly by the entry point. Paths are
// built by plain concatenation so that "/x" resolved from root R is R + "/x".
//
// Usage:
//
//	r := paths.New("/srv/app", "https://example.net")
//	r.Path("/data/app.db") // "/srv/app/data/app.db"
//	r.URL("login")         // "https://example.net/login"
package paths
