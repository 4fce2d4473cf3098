package identity

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"

	"github.com/Faultbox/meshbake/internal/meta"
)

func TestRegistryEnsure(t *testing.T) {
	dir := t.TempDir()
	asset := filepath.Join(dir, "Brick.mat")

	r := NewRegistry()
	if _, ok, err := r.Find(asset); ok || err != nil {
		t.Fatalf("Find before Ensure = %v, %v", ok, err)
	}

	guid, err := r.Ensure(asset, meta.TypeMaterial)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if _, err := uuid.Parse(guid); err != nil {
		t.Errorf("GUID %q is not a uuid: %v", guid, err)
	}

	h, err := meta.ReadHolder(meta.Path(asset))
	if err != nil {
		t.Fatalf("sidecar not written: %v", err)
	}
	if h.GUID != guid || h.TypeName != meta.TypeMaterial {
		t.Errorf("sidecar = %+v", h)
	}

	// A fresh registry reads the persisted GUID back.
	again, err := NewRegistry().Ensure(asset, meta.TypeMaterial)
	if err != nil || again != guid {
		t.Errorf("second Ensure = %q, %v; want %q", again, err, guid)
	}

	found, ok, err := NewRegistry().Find(asset)
	if !ok || err != nil || found != guid {
		t.Errorf("Find = %q, %v, %v", found, ok, err)
	}
}

func TestRegistryCorruptSidecar(t *testing.T) {
	asset := filepath.Join(t.TempDir(), "tex.png")
	if err := os.WriteFile(meta.Path(asset), []byte("guid: [oops"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewRegistry().Ensure(asset, meta.TypeTexture); !errors.Is(err, meta.ErrMetadataCorrupt) {
		t.Errorf("expected ErrMetadataCorrupt, got %v", err)
	}
}

func TestRegistryConcurrentEnsure(t *testing.T) {
	asset := filepath.Join(t.TempDir(), "shared.mat")
	r := NewRegistry()

	const workers = 16
	guids := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			guids[i], _ = r.Ensure(asset, meta.TypeMaterial)
		}(i)
	}
	wg.Wait()

	for i, g := range guids {
		if g == "" || g != guids[0] {
			t.Errorf("worker %d got %q, want %q", i, g, guids[0])
		}
	}
	hits, misses := r.Stats()
	if misses != 1 || hits != workers-1 {
		t.Errorf("stats = %d hits, %d misses", hits, misses)
	}
}

func TestBuildTextureIndex(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "textures", "stone")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}

	write := func(p, content string) {
		t.Helper()
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	write(filepath.Join(sub, "wall.png"), "png")
	write(filepath.Join(sub, "wall.png.meta"), "guid: wall-guid\ntypeName: meshbake.Texture\n")
	write(filepath.Join(root, "floor.JPG.meta"), `{"guid": "floor-guid"}`)
	write(filepath.Join(root, "broken.tga.meta"), "guid: [")
	write(filepath.Join(root, "model.gltf.meta"), "guid: mesh-guid\n")

	idx, skipped, err := BuildTextureIndex(root)
	if err != nil {
		t.Fatalf("BuildTextureIndex: %v", err)
	}
	if idx.Len() != 2 {
		t.Errorf("Len = %d, want 2", idx.Len())
	}
	if g, ok := idx.Lookup(filepath.Join(root, "textures", "stone", "..", "stone", "wall.png")); !ok || g != "wall-guid" {
		t.Errorf("wall lookup = %q, %v", g, ok)
	}
	if g, ok := idx.Lookup(filepath.Join(root, "floor.JPG")); !ok || g != "floor-guid" {
		t.Errorf("floor lookup = %q, %v", g, ok)
	}
	if _, ok := idx.Lookup(filepath.Join(root, "model.gltf")); ok {
		t.Error("mesh sidecars must not be indexed")
	}
	if len(skipped) != 1 || filepath.Base(skipped[0]) != "broken.tga.meta" {
		t.Errorf("skipped = %v", skipped)
	}
}

func TestNilTextureIndex(t *testing.T) {
	var idx *TextureIndex
	if _, ok := idx.Lookup("a.png"); ok || idx.Len() != 0 {
		t.Error("nil index should be empty")
	}
}

func TestMaterialCacheCreatesOnce(t *testing.T) {
	c := NewMaterialCache()
	var calls atomic.Int32
	release := make(chan struct{})

	create := func() (string, error) {
		calls.Add(1)
		<-release
		return "material-guid", nil
	}

	const workers = 8
	results := make([]string, workers)
	created := make([]bool, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], created[i], _ = c.GetOrCreate("out/../out/Brick.mat", create)
		}(i)
	}
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("creator ran %d times, want 1", calls.Load())
	}
	creators := 0
	for i := range results {
		if results[i] != "material-guid" {
			t.Errorf("worker %d got %q", i, results[i])
		}
		if created[i] {
			creators++
		}
	}
	if creators != 1 {
		t.Errorf("%d callers reported creating, want 1", creators)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d", c.Len())
	}
}

func TestMaterialCacheSharesError(t *testing.T) {
	c := NewMaterialCache()
	boom := errors.New("boom")
	if _, _, err := c.GetOrCreate("a.mat", func() (string, error) { return "", boom }); !errors.Is(err, boom) {
		t.Fatalf("first call err = %v", err)
	}
	_, created, err := c.GetOrCreate("a.mat", func() (string, error) { return "late", nil })
	if created || !errors.Is(err, boom) {
		t.Errorf("second call created=%v err=%v, want shared error", created, err)
	}
}
