// Package manifest loads route tables from a JSON manifest and reloads them
// when the file changes.
//
// # Manifest Format
//
//	{
//	  "routes": [
//	    {"id": "home", "pattern": "/", "kind": "page", "handler": "inspect"},
//	    {"id": "users.show", "pattern": "/users/:id", "methods": ["GET"]},
//	    {"id": "static", "pattern": "/static/*", "kind": "asset", "handler": "assets"}
//	  ]
//	}
//
// The handler field names a module registered with a Registry. Entries
// without a handler use the registry's fallback module.
//
// # Usage
//
//	reg := manifest.NewRegistry()
//	reg.Register("inspect", inspectModule)
//
//	loader := manifest.NewLoader("routes.json", reg)
//	if err := loader.Apply(app); err != nil {
//	    log.Fatal(err)
//	}
//
//	w := manifest.NewWatcher(manifest.WatcherConfig{Path: "routes.json"})
//	w.OnChange(func(manifest.Change) { loader.Apply(app) })
//	go w.Start(ctx)
package manifest
