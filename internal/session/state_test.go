package session

import (
	"fmt"
	"slices"
	"testing"
	"time"
)

func TestRemember_CapKeepsMostRecent(t *testing.T) {
	var st State
	for i := 0; i < 15; i++ {
		st = st.Remember(fmt.Sprintf("5100%02d", i), DefaultHistoryCap)
	}
	if len(st.History) != 10 {
		t.Fatalf("expected 10 entries, got %d", len(st.History))
	}
	for i, code := range st.History {
		want := fmt.Sprintf("5100%02d", i+5)
		if code != want {
			t.Errorf("position %d: expected %s, got %s", i, want, code)
		}
	}
}

func TestRemember_DuplicatesNotReordered(t *testing.T) {
	var st State
	for _, c := range []string{"510300", "159915", "510500"} {
		st = st.Remember(c, DefaultHistoryCap)
	}
	st = st.Remember("510300", DefaultHistoryCap)
	want := []string{"510300", "159915", "510500"}
	if !slices.Equal(st.History, want) {
		t.Errorf("expected %v, got %v", want, st.History)
	}
}

func TestRemember_Unbounded(t *testing.T) {
	var st State
	for i := 0; i < 25; i++ {
		st = st.Remember(fmt.Sprintf("1599%02d", i), 0)
	}
	if len(st.History) != 25 {
		t.Errorf("expected 25 entries, got %d", len(st.History))
	}
}

func TestRemember_DoesNotAliasInput(t *testing.T) {
	base := State{History: make([]string, 1, 4)}
	base.History[0] = "510300"
	a := base.Remember("159915", 10)
	b := base.Remember("510500", 10)
	if a.History[1] != "159915" || b.History[1] != "510500" {
		t.Errorf("states share backing array: %v %v", a.History, b.History)
	}
	if len(base.History) != 1 {
		t.Errorf("input state modified: %v", base.History)
	}
}

func TestStore(t *testing.T) {
	s := NewStore()
	if st := s.Get("a"); len(st.History) != 0 || st.Current != "" {
		t.Errorf("expected zero state, got %+v", st)
	}
	s.Put("a", State{History: []string{"510300"}, Current: "510300"})
	got := s.Get("a")
	got.History[0] = "changed"
	if s.Get("a").History[0] != "510300" {
		t.Error("Get leaked internal slice")
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 session, got %d", s.Len())
	}
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func TestStore_IdleExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	s := NewBoundedStore(time.Hour, 0)
	s.Now = clock.Now

	s.Put("a", State{Current: "510300"})
	s.Put("b", State{Current: "159915"})

	clock.t = clock.t.Add(40 * time.Minute)
	if s.Get("a").Current != "510300" {
		t.Fatal("expected live session")
	}

	clock.t = clock.t.Add(30 * time.Minute)
	if n := s.Sweep(); n != 1 {
		t.Errorf("expected 1 expired session, got %d", n)
	}
	if s.Get("b").Current != "" {
		t.Error("expected idle session dropped")
	}
	if s.Get("a").Current != "510300" {
		t.Error("Get should have kept session a alive")
	}
}

func TestStore_MaxSessionsEvictsLeastRecent(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	s := NewBoundedStore(0, 3)
	s.Now = clock.Now

	for i := 0; i < 3; i++ {
		s.Put(fmt.Sprintf("s%d", i), State{Current: fmt.Sprintf("s%d", i)})
		clock.t = clock.t.Add(time.Second)
	}

	for i := 3; i < 100; i++ {
		s.Put(fmt.Sprintf("s%d", i), State{})
		clock.t = clock.t.Add(time.Second)
	}
	if s.Len() != 3 {
		t.Fatalf("expected store bounded at 3, got %d", s.Len())
	}

	s2 := NewBoundedStore(0, 2)
	s2.Now = clock.Now
	s2.Put("a", State{})
	clock.t = clock.t.Add(time.Second)
	s2.Put("b", State{})
	clock.t = clock.t.Add(time.Second)
	s2.Get("a")
	clock.t = clock.t.Add(time.Second)
	s2.Put("c", State{Current: "c"})
	if s2.Get("b").Current != "" || s2.Len() != 2 {
		t.Error("expected least recently used session evicted")
	}
	if s2.Get("c").Current != "c" {
		t.Error("expected new session stored")
	}
}

func TestStore_UpdateDoesNotEvict(t *testing.T) {
	s := NewBoundedStore(0, 1)
	s.Put("a", State{Current: "1"})
	s.Put("a", State{Current: "2"})
	if s.Get("a").Current != "2" || s.Len() != 1 {
		t.Error("updating an existing session must not evict it")
	}
}
