package repository

import "time"

// CacheRepository defines cache operations used for leaderboard and
// statistics reads
type CacheRepository interface {
	SetJSON(key string, value interface{}, expiration time.Duration) error
	GetJSON(key string, dest interface{}) error
	Delete(key string) error
}
