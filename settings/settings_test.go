package settings

import "testing"

func TestSettingRoundTrip(t *testing.T) {
	tbl := Default()

	cases := []struct {
		n int
		v float64
	}{
		{SettingStepPulse, 4},
		{SettingJunctionDeviation, 0.02},
		{SettingArcTolerance, 0.004},
		{SettingHardLimits, 1},
		{SettingStepsPerMMBase + 0, 400},
		{SettingMaxRateBase + 1, 3000},
		{SettingMaxAccelBase + 2, 50000},
	}

	for _, c := range cases {
		if err := tbl.Set(c.n, c.v); err != nil {
			t.Fatalf("Set(%d,%v): %v", c.n, c.v, err)
		}
		got, ok := tbl.Get(c.n)
		if !ok {
			t.Fatalf("Get(%d) reported unknown setting after Set", c.n)
		}
		if got != c.v {
			t.Errorf("setting %d: wrote %v, read back %v", c.n, c.v, got)
		}
	}
}

func TestSetUnknownSettingDisabled(t *testing.T) {
	tbl := Default()
	if err := tbl.Set(999, 1); err == nil {
		t.Fatal("expected error writing an unknown setting number")
	}
}

func TestMemStoreRoundTrip(t *testing.T) {
	store := NewMemStore()
	doc, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	doc.CoordSystems[0] = [3]float64{1, 2, 3}
	if err := store.Save(doc); err != nil {
		t.Fatal(err)
	}

	reloaded, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.CoordSystems[0] != [3]float64{1, 2, 3} {
		t.Errorf("coord system 0 did not round-trip: %v", reloaded.CoordSystems[0])
	}
}

func TestJSONStoreVersionMismatchResetsToDefaults(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/settings.json"
	store := NewJSONStore(path)

	doc := NewDocument()
	doc.Version = SettingsVersion - 1
	doc.Settings.JunctionDeviationMM = 99
	if err := store.Save(doc); err != nil {
		t.Fatal(err)
	}

	reloaded, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Settings.JunctionDeviationMM == 99 {
		t.Error("expected a version mismatch to discard stale settings")
	}
	if reloaded.Version != SettingsVersion {
		t.Errorf("expected version reset to %d, got %d", SettingsVersion, reloaded.Version)
	}
}
