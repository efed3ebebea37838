// Package config provides unified configuration management for dap2.
//
// # Key Features
//
// - Config: single configuration structure for the codec, the response
// encoder and the command line tools
// - Structured sections: Codec, Compression, Observability
// - YAML, TOML and JSON files, chosen by extension
// - Environment variable substitution with ${VAR_NAME} syntax
// - Defaults and validation
//
// # Usage
//
//	cfg := config.NewConfig("dapdump")
//	if err := config.Load("dapdump.yaml", cfg); err != nil {
//		log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//		log.Fatal(err)
//	}
//	opts, err := cfg.Codec.Options()
//
// ## Environment Variable Substitution
//
//	# dapdump.yaml
//	name: dapdump
//	codec:
//	  server_version: ${DAP_SERVER_VERSION}
//	compression:
//	  algorithm: gzip
//
// Values absent from the file keep the defaults set by NewConfig, so a
// file only needs the settings it changes.
package config
