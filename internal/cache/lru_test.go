// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestLRU_BasicOperations(t *testing.T) {
	c := NewLRU[string](3, time.Minute)

	c.Set("a", "1")
	c.Set("b", "2")
	c.Set("c", "3")

	if v, found := c.Get("a"); !found || v != "1" {
		t.Errorf("Expected to find key 'a' with value '1', got %q found=%v", v, found)
	}
	if _, found := c.Get("b"); !found {
		t.Error("Expected to find key 'b'")
	}
	if _, found := c.Get("c"); !found {
		t.Error("Expected to find key 'c'")
	}

	if c.Len() != 3 {
		t.Errorf("Expected len 3, got %d", c.Len())
	}
}

func TestLRU_Eviction(t *testing.T) {
	c := NewLRU[int](3, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	// Access 'a' to make it most recently used
	c.Get("a")

	// Add new item, should evict 'b' (least recently used)
	c.Set("d", 4)

	if _, found := c.Get("b"); found {
		t.Error("Expected 'b' to be evicted")
	}
	if _, found := c.Get("a"); !found {
		t.Error("Expected 'a' to be present")
	}
	if _, found := c.Get("c"); !found {
		t.Error("Expected 'c' to be present")
	}
	if _, found := c.Get("d"); !found {
		t.Error("Expected 'd' to be present")
	}
	if c.Len() != 3 {
		t.Errorf("Expected len 3 after eviction, got %d", c.Len())
	}
}

func TestLRU_CapacityPlusOne(t *testing.T) {
	const capacity = 5
	c := NewLRU[int](capacity, time.Minute)

	for i := 0; i < capacity+1; i++ {
		c.Set(fmt.Sprintf("key-%d", i), i)
	}

	// The first key inserted is the least recently used and must be gone
	if _, found := c.Get("key-0"); found {
		t.Error("Expected 'key-0' to be evicted after capacity+1 inserts")
	}
	for i := 1; i <= capacity; i++ {
		if _, found := c.Get(fmt.Sprintf("key-%d", i)); !found {
			t.Errorf("Expected 'key-%d' to be present", i)
		}
	}
}

func TestLRU_TTLExpiration(t *testing.T) {
	c := NewLRU[string](10, time.Minute)

	c.SetWithTTL("a", "v", 50*time.Millisecond)

	if v, found := c.Get("a"); !found || v != "v" {
		t.Errorf("Expected to find key 'a' immediately, got %q found=%v", v, found)
	}

	time.Sleep(60 * time.Millisecond)

	if _, found := c.Get("a"); found {
		t.Error("Expected 'a' to be expired")
	}
}

func TestLRU_UpdateExisting(t *testing.T) {
	c := NewLRU[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("a", 2)

	if c.Len() != 1 {
		t.Errorf("Expected len 1 after update, got %d", c.Len())
	}
	if v, _ := c.Get("a"); v != 2 {
		t.Errorf("Expected updated value 2, got %d", v)
	}
}

func TestLRU_Remove(t *testing.T) {
	c := NewLRU[int](3, time.Minute)

	c.Set("a", 1)
	if !c.Remove("a") {
		t.Error("Expected Remove to report true for existing key")
	}
	if c.Remove("a") {
		t.Error("Expected Remove to report false for missing key")
	}
	if _, found := c.Get("a"); found {
		t.Error("Expected 'a' to be gone after Remove")
	}
}

func TestLRU_CleanupExpired(t *testing.T) {
	c := NewLRU[int](10, time.Minute)

	c.SetWithTTL("short", 1, 10*time.Millisecond)
	c.Set("long", 2)

	time.Sleep(20 * time.Millisecond)

	if removed := c.CleanupExpired(); removed != 1 {
		t.Errorf("Expected 1 expired entry removed, got %d", removed)
	}
	if c.Len() != 1 {
		t.Errorf("Expected len 1 after cleanup, got %d", c.Len())
	}
}

func TestLRU_Stats(t *testing.T) {
	c := NewLRU[int](3, time.Minute)

	c.Set("a", 1)
	c.Get("a")
	c.Get("missing")

	hits, misses, size := c.Stats()
	if hits != 1 {
		t.Errorf("Expected 1 hit, got %d", hits)
	}
	if misses != 1 {
		t.Errorf("Expected 1 miss, got %d", misses)
	}
	if size != 1 {
		t.Errorf("Expected size 1, got %d", size)
	}
}

func TestLRU_ConcurrentAccess(t *testing.T) {
	c := NewLRU[int](100, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("key-%d-%d", n, j)
				c.Set(key, j)
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()

	if c.Len() > 100 {
		t.Errorf("Cache exceeded capacity: %d", c.Len())
	}
}
