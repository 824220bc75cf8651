package sysmem

import "testing"

func TestFixedReportsConfiguredValues(t *testing.T) {
	m := NewFixed(100, 50, 1000)

	v, err := m.VirtualBytes()
	if err != nil || v != 100 {
		t.Fatalf("VirtualBytes: got (%d, %v)", v, err)
	}
	r, err := m.ResidentBytes()
	if err != nil || r != 50 {
		t.Fatalf("ResidentBytes: got (%d, %v)", r, err)
	}
	a, err := m.AvailableBytes()
	if err != nil || a != 1000 {
		t.Fatalf("AvailableBytes: got (%d, %v)", a, err)
	}
}

func TestGopsutilInfoReadsLiveProcess(t *testing.T) {
	m, err := NewGopsutilInfo()
	if err != nil {
		t.Fatalf("NewGopsutilInfo: %v", err)
	}
	if _, err := m.ResidentBytes(); err != nil {
		t.Fatalf("ResidentBytes: %v", err)
	}
}
