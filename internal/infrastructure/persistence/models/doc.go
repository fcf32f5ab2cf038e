// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Each model carries ToDomain/FromDomain mappers; repositories in the parent
// package only ever hand domain types to their callers.
//
//   - base.go: shared columns (id, timestamps, soft delete, version, tenant) and counters
//   - identity.go: offices and users
//   - dossier.go: dossiers, parties, documents
//   - appointment.go, messaging.go, invoicing.go
//   - registry.go: repertorium entries and klapper rows
//   - assistant.go: chat sessions, messages, knowledge chunks
//   - licensing.go: licenses and feature flags
package models
