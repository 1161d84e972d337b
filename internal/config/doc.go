// Package config provides configuration parsing for ddom projects.
//
// The configuration is stored in ddom.json or ddom.yaml at the project
// root. This package handles loading, saving, and validating it; the
// serve command maps it onto the live server.
//
// # Configuration File Structure
//
//	{
//	  "name": "dashboard",
//	  "document": "app.ddom.hcl",
//	  "server": {
//	    "addr": ":8090",
//	    "heartbeatInterval": "30s",
//	    "readTimeout": "60s"
//	  },
//	  "session": {
//	    "resumeWindow": "5m",
//	    "historySize": 256
//	  },
//	  "log": {
//	    "level": "info",
//	    "format": "auto"
//	  },
//	  "s3": {
//	    "endpoint": "http://localhost:9000",
//	    "region": "us-east-1",
//	    "pathStyle": true
//	  }
//	}
//
// Duration fields take time.ParseDuration strings. The same structure
// works as YAML under the ddom.yaml name.
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Addr:", cfg.Server.Addr)
package config
