package registry

import (
	"errors"
	"sort"
	"sync"
	"testing"
)

func TestRegisterAndGet(t *testing.T) {
	t.Parallel()

	r := New[HeadSpec]("TEST")
	if err := r.Register("SomeHead", HeadSpec{FPN: true}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	spec, ok := r.Get("SomeHead")
	if !ok {
		t.Fatal("Expected SomeHead to be registered")
	}
	if !spec.FPN {
		t.Error("Expected FPN flag to be preserved")
	}
}

func TestRegisterDuplicate(t *testing.T) {
	t.Parallel()

	r := New[HeadSpec]("TEST")
	if err := r.Register("SomeHead", HeadSpec{}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	err := r.Register("SomeHead", HeadSpec{})
	var dup DuplicateError
	if !errors.As(err, &dup) {
		t.Fatalf("Expected DuplicateError, got %v", err)
	}
	if dup.Registry != "TEST" || dup.Name != "SomeHead" {
		t.Errorf("Unexpected error fields: %+v", dup)
	}
}

func TestGetIsCaseSensitive(t *testing.T) {
	t.Parallel()

	r := New[HeadSpec]("TEST")
	if err := r.Register("SomeHead", HeadSpec{}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if r.Contains("somehead") {
		t.Error("Expected lookups to be case-sensitive")
	}
}

func TestNamesSorted(t *testing.T) {
	t.Parallel()

	r := New[HeadSpec]("TEST")
	for _, name := range []string{"Zeta", "Alpha", "Mid"} {
		if err := r.Register(name, HeadSpec{}); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}

	names := r.Names()
	if !sort.StringsAreSorted(names) {
		t.Errorf("Expected sorted names, got %v", names)
	}
	if len(names) != 3 {
		t.Errorf("Expected 3 names, got %d", len(names))
	}
}

func TestMustRegisterPanicsOnDuplicate(t *testing.T) {
	t.Parallel()

	r := New[HeadSpec]("TEST")
	r.MustRegister("SomeHead", HeadSpec{})

	defer func() {
		if recover() == nil {
			t.Error("Expected MustRegister to panic on duplicate")
		}
	}()
	r.MustRegister("SomeHead", HeadSpec{})
}

func TestConcurrentRegisterAndGet(t *testing.T) {
	t.Parallel()

	r := New[int]("TEST")
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = r.Register(string(rune('A'+i%26))+"x", i)
		}()
		go func() {
			defer wg.Done()
			r.Contains("Ax")
		}()
	}
	wg.Wait()
}

func TestBuiltinConvBodies(t *testing.T) {
	t.Parallel()

	c4, ok := ConvBodies.Get("R-50-C4")
	if !ok {
		t.Fatal("Expected R-50-C4 to be registered")
	}
	if c4.FPN || c4.FeatureStride != 16 || c4.AnchorLevels != 1 || c4.PoolerLevels != 1 {
		t.Errorf("Unexpected R-50-C4 geometry: %+v", c4)
	}

	fpn, ok := ConvBodies.Get("R-50-FPN")
	if !ok {
		t.Fatal("Expected R-50-FPN to be registered")
	}
	if !fpn.FPN || fpn.AnchorLevels != 5 || fpn.PoolerLevels != 4 {
		t.Errorf("Unexpected R-50-FPN geometry: %+v", fpn)
	}
}

func TestBuiltinHeads(t *testing.T) {
	t.Parallel()

	if spec, ok := BoxFeatureExtractors.Get("FPN2MLPFeatureExtractor"); !ok || !spec.FPN {
		t.Error("Expected FPN2MLPFeatureExtractor to be a registered FPN head")
	}
	if spec, ok := BoxPredictors.Get("FastRCNNPredictor"); !ok || spec.FPN {
		t.Error("Expected FastRCNNPredictor to be a registered single-map head")
	}
	if !MetaArchitectures.Contains("GeneralizedRCNN") {
		t.Error("Expected GeneralizedRCNN to be registered")
	}
}
