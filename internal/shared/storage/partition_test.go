package storage

import (
	"errors"
	"testing"
)

func TestResolveDeterministic(t *testing.T) {
	first := Resolve("compose.ownership")
	second := Resolve("compose.ownership")
	if first != second {
		t.Fatalf("expected identical handles, got %s and %s", first, second)
	}
}

func TestResolveDistinctNamespaces(t *testing.T) {
	if Resolve("compose.ownership") == Resolve("compose.access_control") {
		t.Fatalf("distinct namespaces resolved to the same handle")
	}
}

func TestResolveHandleFormat(t *testing.T) {
	handle := Resolve("compose.ownership").String()
	if len(handle) != 2+64 {
		t.Fatalf("expected 0x-prefixed 32-byte hex handle, got %q", handle)
	}
	if handle[:2] != "0x" {
		t.Fatalf("expected 0x prefix, got %q", handle)
	}
}

func TestSpaceClaimOncePerNamespace(t *testing.T) {
	space := NewSpace()

	handle, region, err := space.Claim("compose.ownership", func() any {
		return map[string]string{}
	})
	if err != nil {
		t.Fatalf("first claim failed: %v", err)
	}
	if region == nil {
		t.Fatalf("expected allocated region")
	}
	if handle != Resolve("compose.ownership") {
		t.Fatalf("claim returned unexpected handle %s", handle)
	}

	_, _, err = space.Claim("compose.ownership", func() any {
		return map[string]string{}
	})
	if !errors.Is(err, ErrPartitionClaimed) {
		t.Fatalf("expected ErrPartitionClaimed, got %v", err)
	}
}

func TestSpaceRegionsAreIndependent(t *testing.T) {
	space := NewSpace()

	_, first, err := space.Claim("compose.ownership", func() any {
		return map[string]string{"owner": "alice"}
	})
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	_, second, err := space.Claim("compose.access_control", func() any {
		return map[string]string{}
	})
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	first.(map[string]string)["owner"] = "bob"
	if len(second.(map[string]string)) != 0 {
		t.Fatalf("mutation of one region leaked into another")
	}
}
