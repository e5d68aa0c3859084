package metrics

import (
	"runtime"
	"testing"
	"time"
)

func TestNewRuntimeDefaults(t *testing.T) {
	r := NewRuntime(ChipIdentity{})
	chip := r.ChipIdentity()

	if chip.Model != runtime.GOOS+"/"+runtime.GOARCH {
		t.Errorf("Model = %q, want %q", chip.Model, runtime.GOOS+"/"+runtime.GOARCH)
	}
	if chip.Cores == 0 {
		t.Error("Cores should default to at least 1")
	}
	if chip.Features != FeatureNone {
		t.Errorf("Features = %q, want %q", chip.Features, FeatureNone)
	}
}

func TestNewRuntimeKeepsIdentity(t *testing.T) {
	want := ChipIdentity{Model: "rpi-zero-2w", Cores: 4, Features: FeatureWiFi}
	if got := NewRuntime(want).ChipIdentity(); got != want {
		t.Errorf("ChipIdentity() = %+v, want %+v", got, want)
	}
}

func TestRuntimeUptime(t *testing.T) {
	r := NewRuntime(ChipIdentity{})
	base := r.started
	r.now = func() time.Time { return base.Add(90 * time.Second) }

	if got := r.Uptime(); got != 90*time.Second {
		t.Errorf("Uptime() = %v, want 90s", got)
	}
}

func TestRuntimeMinFreeHeapTracksLowest(t *testing.T) {
	r := NewRuntime(ChipIdentity{})
	readings := [][2]uint64{
		{1000, 400}, // 600 free
		{1000, 900}, // 100 free
		{2000, 500}, // 1500 free
		{100, 200},  // alloc above sys clamps to 0
	}
	i := 0
	r.heap = func() (uint64, uint64) {
		v := readings[i]
		i++
		return v[0], v[1]
	}

	wantFree := []uint64{600, 100, 1500, 0}
	wantMin := []uint64{600, 100, 100, 0}
	for n := range readings {
		if got := r.FreeHeap(); got != wantFree[n] {
			t.Errorf("FreeHeap() #%d = %d, want %d", n, got, wantFree[n])
		}
		if got := r.MinFreeHeap(); got != wantMin[n] {
			t.Errorf("MinFreeHeap() #%d = %d, want %d", n, got, wantMin[n])
		}
	}
}

func TestRuntimeMinFreeHeapBeforeFirstSample(t *testing.T) {
	r := NewRuntime(ChipIdentity{})
	r.heap = func() (uint64, uint64) { return 4096, 1024 }

	if got := r.MinFreeHeap(); got != 3072 {
		t.Errorf("MinFreeHeap() = %d, want 3072", got)
	}
}

func TestTakeOrdersMinAfterFree(t *testing.T) {
	r := NewRuntime(ChipIdentity{Model: "test", Cores: 2, Features: FeatureWiFi})
	r.heap = func() (uint64, uint64) { return 8192, 8000 }

	snap := Take(r)
	if snap.FreeHeap != 192 {
		t.Errorf("FreeHeap = %d, want 192", snap.FreeHeap)
	}
	if snap.MinFreeHeap > snap.FreeHeap {
		t.Errorf("MinFreeHeap %d exceeds FreeHeap %d", snap.MinFreeHeap, snap.FreeHeap)
	}
	if snap.Chip.Model != "test" {
		t.Errorf("Chip.Model = %q, want test", snap.Chip.Model)
	}
}

func TestFeatures(t *testing.T) {
	if Features(true) != FeatureWiFi {
		t.Errorf("Features(true) = %q", Features(true))
	}
	if Features(false) != FeatureNone {
		t.Errorf("Features(false) = %q", Features(false))
	}
}

func TestClampCores(t *testing.T) {
	tests := []struct {
		in   int
		want uint8
	}{
		{0, 1},
		{1, 1},
		{8, 8},
		{300, 255},
	}
	for _, tt := range tests {
		if got := clampCores(tt.in); got != tt.want {
			t.Errorf("clampCores(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
