package discovery

import "testing"

func TestAdvertiseRejectsNonPositivePort(t *testing.T) {
	if _, err := Advertise("loom", 0, "http://example.local"); err == nil {
		t.Fatal("expected an error for a zero port")
	}
	if _, err := Advertise("loom", -1, "http://example.local"); err == nil {
		t.Fatal("expected an error for a negative port")
	}
}

func TestAdvertiseDefaultsBlankNameToLoom(t *testing.T) {
	srv, err := Advertise("   ", 18080, "http://127.0.0.1:18080")
	if err != nil {
		t.Fatalf("Advertise: %v", err)
	}
	defer srv.Shutdown()
}
