// Package config handles configuration loading for verifywise-mcp.
//
// # Overview
//
// Configuration is read from VERIFYWISE_* environment variables, optionally
// layered over a YAML file. Environment values always win over file values.
//
// # Configuration File
//
// The file path comes from the VERIFYWISE_CONFIG environment variable, with
// a fallback to ~/.config/verifywise-mcp/config.yaml. A missing file is not
// an error; the environment alone is a complete configuration source.
//
// # Environment Variable Expansion
//
// Configuration values inside the file can reference environment variables:
//
//	verifywise:
//	  password: "${VERIFYWISE_PASSWORD}"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values accept Go's time.ParseDuration syntax ("30s", "5m") or a
// bare number of seconds ("30"):
//
//	verifywise:
//	  request_timeout: "30s"
//	  retry_base_delay: "1s"
//	  token_expiry_margin: "60s"
//
// # Configuration Sections
//
// VerifyWise connection and resilience:
//
//	verifywise:
//	  base_url: "http://localhost:3000"
//	  email: "admin@example.com"
//	  password: "${VERIFYWISE_PASSWORD}"
//	  request_timeout: "30s"
//	  max_retries: 3
//	  retry_base_delay: "1s"
//	  retry_max_delay: "30s"
//	  token_expiry_margin: "60s"
//	  refresh_fallback_login: true
//
// MCP transport:
//
//	server:
//	  transport: "stdio"   # stdio or http
//	  http_addr: ":8080"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Validation
//
// Load() validates:
//
//   - email and password presence
//   - base URL shape
//   - positive timeouts and retry settings
//   - transport mode values
package config
