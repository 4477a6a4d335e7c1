package domain

import "testing"

func TestClassifyEngineType(t *testing.T) {
	tests := []struct {
		path string
		want EngineType
	}{
		{"characters/hero/hero.entity.json", EngineTypeEntity},
		{"shaders/skin.shader.json", EngineTypeShader},
		{"levels/docks/docks.world.json", EngineTypeWorld},
		{"levels/docks/pier.zone.json", EngineTypeZone},
		{"anims/walk.anim.json", EngineTypeAnimation},
		{"textures/brick.TGA", EngineTypeTexture},
		{"meshes/crate.mesh", EngineTypeMesh},
		{"readme.txt", EngineTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := ClassifyEngineType(tt.path); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAssetFileAddDependency(t *testing.T) {
	file := &ManagedFile{ID: 10, Path: "a.entity.json"}
	af := NewAssetFile(file)

	af.AddDependency(20)
	af.AddDependency(20) // duplicate collapses
	af.AddDependency(TUIDNull)
	af.AddDependency(10) // self-reference ignored
	af.AddDependency(5)

	got := af.DependencyList()
	want := []TUID{5, 20}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
