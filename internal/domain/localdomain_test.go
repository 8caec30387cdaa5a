package domain

import (
	"testing"

	"github.com/ehrlich-b/wezmux/internal/ptysystem"
)

func TestLocalDomainSpawnDefaultShell(t *testing.T) {
	d := NewLocalDomain(ptysystem.NewLocal(), "/bin/cat", 100)

	tb, err := d.Spawn(ptysystem.PtySize{Rows: 24, Cols: 80}, nil)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer tb.(interface{ Close() error }).Close()

	if tb.DomainId() != d.DomainId() {
		t.Errorf("tab DomainId() = %d, want %d", tb.DomainId(), d.DomainId())
	}
	if tb.IsDead() {
		t.Errorf("freshly spawned tab reported dead")
	}
}
