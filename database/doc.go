// Package database provides the database client: connection management,
// channel based query and lifecycle logging, configuration from URLs, YAML
// files and environment variables, SQL error classification and health
// checks, built on top of Bun.
package database
