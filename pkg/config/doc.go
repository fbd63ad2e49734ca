// Package config loads and validates the banker configuration.
//
// # Configuration Sources
//
// Configuration is read from a YAML file and then overridden by environment
// variables named BANKER_SECTION_FIELD:
//
//	BANKER_ENGINE_POLICY=available_only
//	BANKER_SERVER_LISTEN_ADDRESS=0.0.0.0:9090
//	BANKER_AUDIT_SCHEDULE="@every 30s"
//
// Environment variables always take precedence over the file.
//
// # Example
//
//	engine:
//	  policy: canonical
//	scenario:
//	  path: ./scenarios/classic.txt
//	  watch: true
//	  debounce: 200ms
//	server:
//	  listen_address: 127.0.0.1:8080
//	audit:
//	  schedule: "@every 30s"
//	telemetry:
//	  logging:
//	    level: info
//	    format: json
//	  metrics:
//	    enabled: true
//	    path: /metrics
//
// # Usage
//
//	cfg, err := config.LoadOrDefault("banker.yaml", false)
//	if err != nil {
//	    return err
//	}
//
// LoadOrDefault treats a missing file as "use defaults" unless the caller
// says the path was given explicitly.
package config
