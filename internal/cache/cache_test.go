package cache

import "testing"

func TestStoreRoundTrip(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	k := Key("slither", "contract C {}")
	if _, ok, err := s.Load(k); ok || err != nil {
		t.Fatalf("empty store: ok=%v err=%v", ok, err)
	}
	if err := s.Put(k, []byte(`[]`)); err != nil {
		t.Fatal(err)
	}
	b, ok, err := s.Load(k)
	if err != nil || !ok || string(b) != "[]" {
		t.Fatalf("load = %q %v %v", b, ok, err)
	}
}

func TestKeyIsLengthPrefixed(t *testing.T) {
	if Key("ab", "c") == Key("a", "bc") {
		t.Fatal("keys collide")
	}
	if Key("a", "b") != Key("a", "b") {
		t.Fatal("key not stable")
	}
}
