// Package environment bootstraps the application at process start.
//
// Init loads the configuration file, fixes the root path used for relative
// paths and URLs, applies the configured timezone and redirects the error
// log. The returned Environment is passed explicitly to the rest of the
// program; there is no package-level state.
//
// Usage:
//
//	env, err := environment.Init(root, "configs/app.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer env.Close()
//
//	db, err := env.Connect(ctx)
//	switch {
//	case errors.Is(err, database.ErrNotConfigured):
//	    // no database configured
//	case err != nil:
//	    return err
//	}
//
// Init must run once, before other goroutines start, because the timezone and
// the standard log output are process-wide.
package environment
