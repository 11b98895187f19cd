// File: utils/constants.go
package utils

// CatalogCachePrefix is the prefix used for Redis catalog cache keys.
const CatalogCachePrefix = "catalog:service:"

// SystemActorID is the actor recorded for transitions and settlements driven by background workers.
const SystemActorID = "system"
