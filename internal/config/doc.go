// Package config loads and validates lexdesk client configuration.
//
// Configuration is a YAML file with four sections:
//
//	backend:
//	  base_url: https://api.lexdesk.example
//	  request_timeout: 30s
//
//	push:
//	  socket_url: wss://api.lexdesk.example/socket
//	  min_backoff: 500ms
//	  max_backoff: 30s
//	  max_retries: 10
//
//	credentials:
//	  path: ~/.local/share/lexdesk/credentials.db
//
//	logging:
//	  level: info
//	  format: text
//
// # Environment Variable Expansion
//
// Values may reference environment variables with ${VAR_NAME} syntax:
//
//	backend:
//	  base_url: ${LEXDESK_BACKEND_URL}
//
// Unset variables expand to the empty string, which then fails
// validation for required fields.
//
// # Durations
//
// Timing fields are written as Go duration strings ("500ms", "30s") and
// parsed into time.Duration values during Load. Absent timing fields
// receive the package defaults.
package config
