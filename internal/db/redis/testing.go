package redis

import "github.com/redis/rueidis"

// NewStoreForTest creates a Store with the provided rueidis client (test-only).
func NewStoreForTest(c rueidis.Client) *Store {
	return newStore(c, 0)
}

// NewStoreForTestWithPipeline creates a Store with a custom DoMulti batch size (test-only).
func NewStoreForTestWithPipeline(c rueidis.Client, pipeline int) *Store {
	return newStore(c, pipeline)
}
