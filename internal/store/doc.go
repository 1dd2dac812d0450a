// Package store defines the persistence interfaces and shared database
// plumbing. Implementations live under internal/platform; services and
// consumers depend only on the interfaces here.
package store
