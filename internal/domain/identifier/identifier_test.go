package identifier

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestUUIDFactoryNew(t *testing.T) {
	f := UUIDFactory{}

	first := f.New()
	second := f.New()

	if first == second {
		t.Fatalf("New returned the same id twice: %s", first)
	}
	for _, id := range []string{first, second} {
		if _, err := uuid.Parse(id); err != nil {
			t.Errorf("New returned a non-UUID %q: %v", id, err)
		}
	}
}

func TestUUIDFactoryParse(t *testing.T) {
	f := UUIDFactory{}

	t.Run("round trip", func(t *testing.T) {
		id := f.New()
		got, err := f.Parse(id)
		if err != nil {
			t.Fatalf("Parse(%q): %v", id, err)
		}
		if got != id {
			t.Errorf("Parse(%q) = %q, want the input back", id, got)
		}
	})

	t.Run("canonicalizes case", func(t *testing.T) {
		got, err := f.Parse("7D444840-9DC0-11D1-B245-5FFDCE74FAD2")
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if got != "7d444840-9dc0-11d1-b245-5ffdce74fad2" {
			t.Errorf("Parse = %q, want lowercase canonical form", got)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		for _, in := range []string{"", "not-a-uuid", "7d444840-9dc0-11d1-b245"} {
			if _, err := f.Parse(in); !errors.Is(err, ErrMalformed) {
				t.Errorf("Parse(%q) err = %v, want ErrMalformed", in, err)
			}
		}
	})
}
