// Package config loads dispatch.json and DISPATCH_* environment overrides.
//
// # Configuration File Structure
//
//	{
//	  "name": "api",
//	  "server": {
//	    "addr": ":8080",
//	    "prefix": "/app",
//	    "shutdownTimeout": "10s"
//	  },
//	  "routes": {
//	    "manifest": "routes.json",
//	    "watch": true,
//	    "watchInterval": "500ms"
//	  },
//	  "log": {"level": "debug", "format": "json"},
//	  "metrics": {"enabled": true, "path": "/metrics"},
//	  "tracing": {"enabled": true},
//	  "rateLimit": {"enabled": true, "requests": 100, "per": "1m"}
//	}
//
// Every field can be overridden from the environment:
//
//	DISPATCH_SERVER_ADDR=:9090
//	DISPATCH_ROUTES_WATCH=true
//	DISPATCH_LOG_LEVEL=debug
//	DISPATCH_RATE_LIMIT_REQUESTS=10
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Server.Addr)
package config
