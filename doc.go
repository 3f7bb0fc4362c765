// Package main provides the entry point of GoPermission-Admin, a service that resolves
// effective permissions. Role grants are kept as a CRUD matrix plus normalized rows that
// are written together; user overrides with priorities, time windows and IP allowlists
// take precedence over role grants while they apply. A fiber REST API, a cobra CLI and a
// gorm backed store (sqlite, mysql or postgres) expose the engine.
package main
