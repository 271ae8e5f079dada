// Package sheetsync imports handovers from a Google Sheet.
//
// A [Syncer] reads the sheet through [SheetsClient] using a service account
// token from [Credentials], maps each row to a handover and upserts it by its
// external reference. [RelayClient] is used by the cron endpoint to trigger a
// sync running elsewhere.
package sheetsync
