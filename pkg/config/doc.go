// Package config loads handover-tracker settings.
//
// Values are resolved in this order, later sources winning:
//
//   - built-in defaults
//   - $HANDOVER_CONFIG_PATH/handover.yml (default /etc/handover/handover.yml)
//   - environment variables (a .env file is loaded first for local development)
//
// Every attribute remembers where its value came from so that
// `handoverctl configuration show` can report it.
//
// # Environment Variables
//
//   - DATABASE_URL: Postgres connection string
//   - PORT, BIND_ADDRESS: HTTP listener
//   - HANDOVER_LOG_LEVEL: debug, info, warn or error
//   - SUPABASE_JWT_SECRET: verifies bearer tokens on /api/v1
//   - CRON_SECRET: bearer token for /api/cron/sync-sheets and /api/sync/sheets
//   - SYNC_ENDPOINT_URL: downstream sync endpoint called by the cron trigger
//   - GOOGLE_SERVICE_ACCOUNT_EMAIL, GOOGLE_PRIVATE_KEY, GOOGLE_SHEET_ID, GOOGLE_SHEET_RANGE
//   - HANDOVER_TIMEZONE: time zone for due-date bucketing
package config
