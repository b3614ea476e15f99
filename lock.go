package pgqueue

import (
	"context"
	"hash/fnv"
)

// namespaceSalt returns a stable int64 salt for the given schema name. The
// salt is added (with wraparound) to every advisory lock key so deployments
// sharing a database but using different schemas never contend on each
// other's locks.
func namespaceSalt(schema string) int64 {
	h := fnv.New64a()
	// hash.Hash.Write is documented to never return an error.
	_, _ = h.Write([]byte(schema))
	// Intentional uint64 to int64 reinterpretation: advisory lock keys use
	// the full int64 range, so keeping the sign bit preserves distribution.
	return int64(h.Sum64()) //nolint:gosec // G115: full-range reinterpretation
}

// lockKey salts a base key into this client's advisory lock keyspace.
// Addition wraps on overflow, which is fine: only stability matters.
func (c *Client) lockKey(base int64) int64 {
	return c.lockSalt + base
}

// tryAcquireLock attempts a transaction-scoped advisory lock for the salted
// base key. The acquisition is non-blocking: if another transaction holds the
// same key, it reports false immediately instead of waiting. The lock is
// released automatically when the enclosing transaction commits or rolls
// back; callers never release it explicitly.
func (c *Client) tryAcquireLock(ctx context.Context, q querier, base int64) (bool, error) {
	var acquired bool
	err := q.QueryRow(ctx, `SELECT pg_try_advisory_xact_lock($1)`, c.lockKey(base)).Scan(&acquired)
	if err != nil {
		return false, err
	}
	return acquired, nil
}
