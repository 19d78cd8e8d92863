package checksum

import (
	"strings"
	"testing"
)

func TestSum(t *testing.T) {
	const want = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if got := Sum([]byte("hello")); got != want {
		t.Errorf("Sum = %q, want %q", got, want)
	}
}

func TestSumReaderMatchesSum(t *testing.T) {
	data := strings.Repeat("inkwell media ", 4096)
	got, err := SumReader(strings.NewReader(data))
	if err != nil {
		t.Fatalf("SumReader: %v", err)
	}
	if want := Sum([]byte(data)); got != want {
		t.Errorf("SumReader = %q, want %q", got, want)
	}
}
