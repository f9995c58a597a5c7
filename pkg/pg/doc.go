// Package pg bootstraps the PostgreSQL layer: a pgx/v5 connection pool with
// startup retries, goose schema migrations, a readiness probe, and error
// classification helpers for business logic (not-found, duplicate key,
// foreign key violations).
package pg
