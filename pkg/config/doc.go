// Package config provides application configuration from a YAML file and
// environment variables.
//
// # Overview
//
// Defaults come from Default(). LoadFile reads a YAML document over them,
// then GATEKEEP_* environment variables override individual settings, and
// the result is validated. LoadConfig does the same with the file named by
// GATEKEEP_CONFIG, if any.
//
// # Configuration Structure
//
// Server settings:
//
//	GATEKEEP_HOST="0.0.0.0"
//	GATEKEEP_PORT="8080"
//	GATEKEEP_HEALTH_PORT="9090"
//	GATEKEEP_ALLOWED_ORIGINS="https://app.example,https://admin.example"
//
// Sessions and rate limiting:
//
//	GATEKEEP_REDIS_URL="redis://localhost:6379"
//	GATEKEEP_SESSION_TTL="24h"
//	GATEKEEP_RATE_LIMIT_PRINCIPAL="1000"
//	GATEKEEP_RATE_LIMIT_WINDOW="1m"
//
// Ownership database:
//
//	GATEKEEP_DB_DRIVER="postgres"  # postgres, sqlite3, or empty to disable
//	GATEKEEP_DB_DSN="postgres://localhost/lms?sslmode=disable"
//	GATEKEEP_OWNER_CACHE_TTL="30s"
//
// Audit and observability:
//
//	GATEKEEP_AUDIT_OUTPUT="/var/log/gatekeep/audit.log"
//	GATEKEEP_LOG_LEVEL="info"  # debug, info, warn, error
//	GATEKEEP_OTEL_ENABLED="true"
//	GATEKEEP_OTEL_ENDPOINT="otel-collector:4317"
//
// # Usage Example
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//	logger := observability.NewLogger(cfg.Observability.Level(), os.Stdout)
package config
