// Package repositories implements SQLite persistence for client preferences.
//
// The [SettingsRepository] stores key/value rows in the settings table created by the
// embedded migrations in package shared. The only key written today is [VolumeKey],
// read when a player session starts and rewritten on every volume change.
package repositories
