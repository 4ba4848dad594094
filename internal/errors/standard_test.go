package errors

import (
	"strings"
	"testing"
)

func TestOutOfMemoryFormatsCategoryAndSize(t *testing.T) {
	err := OutOfMemory("heap extension", 4096)

	if err.Category != CategorySystem {
		t.Fatalf("Category = %s, want %s", err.Category, CategorySystem)
	}

	if !strings.Contains(err.Error(), "4096") {
		t.Fatalf("Error() = %q, want it to mention the requested size", err.Error())
	}
}
