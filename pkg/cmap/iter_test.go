package cmap

import (
	"fmt"
	"reflect"
	"sync"
	"testing"
)

func TestRange(t *testing.T) {
	m := New[int]()
	for i := 0; i < 10; i++ {
		m.Set(fmt.Sprint(i), i)
	}

	sum := 0
	m.Range(func(_ string, v int) bool {
		sum += v
		return true
	})
	if sum != 45 {
		t.Errorf("sum = %d, want 45", sum)
	}
}

func TestRangeEarlyStop(t *testing.T) {
	m := New[int]()
	for i := 0; i < 100; i++ {
		m.Set(fmt.Sprint(i), i)
	}
	calls := 0
	m.Range(func(string, int) bool {
		calls++
		return calls < 5
	})
	if calls != 5 {
		t.Errorf("calls = %d, want 5", calls)
	}
}

func TestKeysSorted(t *testing.T) {
	m := New[int]()
	for _, k := range []string{"c", "a", "b", "aa"} {
		m.Set(k, 0)
	}
	if got := m.Keys(); !reflect.DeepEqual(got, []string{"a", "aa", "b", "c"}) {
		t.Errorf("Keys() = %v", got)
	}
}

func TestEntries(t *testing.T) {
	m := New[string]()
	m.Set("y", "2")
	m.Set("x", "1")
	want := []Entry[string]{{"x", "1"}, {"y", "2"}}
	if got := m.Entries(); !reflect.DeepEqual(got, want) {
		t.Errorf("Entries() = %v, want %v", got, want)
	}
}

func TestReplace(t *testing.T) {
	m := New[int](WithShards(4))
	m.Set("old", 1)

	m.Replace([]Entry[int]{{"a", 1}, {"b", 2}, {"c", 3}})

	if m.Has("old") {
		t.Error("Replace kept an old entry")
	}
	if m.Len() != 3 {
		t.Errorf("Len() = %d, want 3", m.Len())
	}
	for _, k := range []string{"a", "b", "c"} {
		if !m.Has(k) {
			t.Errorf("missing %q after Replace", k)
		}
	}

	m.Replace(nil)
	if m.Len() != 0 {
		t.Errorf("Len() after Replace(nil) = %d", m.Len())
	}
}

func TestConcurrentRange(t *testing.T) {
	m := New[int]()
	for i := 0; i < 1000; i++ {
		m.Set(fmt.Sprint(i), i)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			m.Range(func(string, int) bool { return true })
		}()
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.Set(fmt.Sprintf("w%d-%d", i, j), j)
			}
		}(i)
	}
	wg.Wait()

	if m.Len() != 2000 {
		t.Errorf("Len() = %d, want 2000", m.Len())
	}
}
