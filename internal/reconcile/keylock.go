// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

package reconcile

import (
	"hash/fnv"
	"sync"
)

// keyLockStripes is a power of two so the modulo stays a mask.
const keyLockStripes = 64

// keyLock serializes writers per match key. Two concurrent syncs
// reconciling the same title take the same stripe and cannot race a
// canonical record into duplicates.
type keyLock struct {
	stripes [keyLockStripes]sync.Mutex
}

func newKeyLock() *keyLock {
	return &keyLock{}
}

func (k *keyLock) stripe(key string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(key))
	return h.Sum32() & (keyLockStripes - 1)
}

func (k *keyLock) lock(key string) *sync.Mutex {
	m := &k.stripes[k.stripe(key)]
	m.Lock()
	return m
}
