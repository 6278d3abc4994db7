// Package store provides relational persistence for personas, actividades, categorias,
// transacciones and users. It runs over sqlx with two interchangeable backends:
// SQLite (modernc, pure Go, WAL mode) for file DSNs and PostgreSQL (pgx) for
// postgres:// DSNs. Schema is created on open with portable DDL.
package store
