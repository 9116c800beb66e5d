// Package config loads the extapi-acsys service configuration.
//
// Configuration comes from three layers, later layers winning:
//
//  1. DefaultConfig: the production endpoints and the gateway defaults.
//  2. Zero or more JSON or YAML files added with Loader.AddLayer. Only the
//     keys present in a file override the layer below it.
//  3. Environment overrides with the EXTAPI_ prefix.
//
// # Basic Usage
//
//	cfg, err := config.Load("/etc/extapi-acsys/config.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Or with several layers:
//
//	loader := config.NewLoader()
//	loader.AddLayer("config/base.json")
//	loader.AddLayer("config/production.json")
//	loader.EnableValidation(true)
//	cfg, err := loader.Load()
//
// # File Format
//
//	{
//	  "server": {
//	    "bind_address": "0.0.0.0:8000",
//	    "path": "/acsys",
//	    "subscription_path": "/acsys/s",
//	    "enable_playground": false,
//	    "timeout": "30s",
//	    "snapshot_timeout": "2s",
//	    "keep_alive": "15s"
//	  },
//	  "backends": {
//	    "dpm": "dce46.fnal.gov:50051",
//	    "devdb": "clx76.fnal.gov:6802",
//	    "clock": "clx76.fnal.gov:6803",
//	    "connect_timeout": "5s"
//	  },
//	  "metrics": {"enabled": true, "port": 9090, "path": "/metrics"}
//	}
//
// # Environment
//
//	EXTAPI_BIND_ADDRESS   server.bind_address
//	EXTAPI_DPM_ADDR       backends.dpm
//	EXTAPI_DEVDB_ADDR     backends.devdb
//	EXTAPI_CLOCK_ADDR     backends.clock
//	EXTAPI_METRICS_PORT   metrics.port
//
// Files must end in .json, .yaml or .yml and stay under 1MB. JSON files may
// nest at most 32 levels.
package config
