// Package domain contains the core entities of the exam trainer: review cards
// and their SM-2 state, the immutable activity log, per-day statistics,
// cumulative user profiles and published ranking snapshots.
//
// Types in this package carry no persistence or transport concerns. Stores
// and services translate between these types and their own representations.
package domain
