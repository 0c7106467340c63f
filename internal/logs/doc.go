// Package logs reads gateway log records for the CLI.
//
// Client queries a running gateway's /logs endpoint. ReadFile recovers
// records from a JSON log file written with logging.format = "json", so the
// same filters can be applied offline through a logging.Store when the
// gateway is not running.
package logs
