// Command handoverctl runs the handover tracker backend.
//
// The tracker follows employee handovers (an outgoing employee passing a
// role to an incoming one) and serves the manager dashboard, the handover
// and directory REST API, and the scheduled import from Google Sheets.
//
// # Quick Start
//
//	# Apply database migrations
//	handoverctl db migrate
//
//	# Start the server
//	handoverctl server
//
//	# Import the configured sheet once
//	handoverctl sync sheets
//
// # Environment Variables
//
//   - DATABASE_URL: PostgreSQL connection string
//   - SUPABASE_JWT_SECRET: HS256 secret access tokens are signed with
//   - CRON_SECRET: bearer token for /api/cron/sync-sheets and /api/sync/sheets
//   - SYNC_ENDPOINT_URL: endpoint the cron trigger relays to
//   - GOOGLE_SERVICE_ACCOUNT_EMAIL, GOOGLE_PRIVATE_KEY, GOOGLE_SHEET_ID: sheet import
//   - HANDOVER_LOG_LEVEL: debug, info, warn or error
//   - PORT: server port (default: 8000)
//
// Settings can also come from $HANDOVER_CONFIG_PATH/handover.yml and a .env
// file; "handoverctl configuration show" prints where each value came from.
package main
