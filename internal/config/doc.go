// Package config provides configuration parsing for fsroute projects.
//
// The configuration is stored in fsroute.json (or fsroute.yaml) at the
// project root. FSROUTE_* variables from the process environment, or from
// a .env file next to the configuration, override file values.
//
// # Configuration File Structure
//
//	{
//	  "routesDir": "app/routes",
//	  "extensions": ["tsx", "go"],
//	  "ignore": ["**/*.stories.tsx"],
//	  "defaultMode": "ssr",
//	  "platform": "web",
//	  "matchCacheSize": 1024,
//	  "dev": {
//	    "port": 3000,
//	    "host": "localhost",
//	    "debounce": "100ms",
//	    "watch": ["content"],
//	    "hotReload": true
//	  },
//	  "manifest": {
//	    "output": "dist/routes-manifest.json",
//	    "bucket": "my-site",
//	    "prefix": "releases/42"
//	  },
//	  "metrics": {
//	    "namespace": "fsroute"
//	  }
//	}
//
// # Environment Overrides
//
//	FSROUTE_ROUTES_DIR, FSROUTE_DEFAULT_MODE, FSROUTE_PLATFORM,
//	FSROUTE_MATCH_CACHE_SIZE, FSROUTE_HOST, FSROUTE_PORT, FSROUTE_DEBOUNCE,
//	FSROUTE_HOT_RELOAD, FSROUTE_MANIFEST_OUTPUT, FSROUTE_MANIFEST_BUCKET,
//	FSROUTE_MANIFEST_PREFIX, FSROUTE_MANIFEST_REGION,
//	FSROUTE_MANIFEST_ENDPOINT, FSROUTE_MANIFEST_PATH_STYLE,
//	FSROUTE_METRICS_NAMESPACE
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Routes:", cfg.RoutesPath())
package config
