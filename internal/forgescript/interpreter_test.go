// SPDX-License-Identifier: MPL-2.0

package forgescript

import (
	"errors"
	"testing"
)

func TestParseSlot(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		want    Slot
		wantErr bool
	}{
		{"settings", SlotSettings, false},
		{"teardown", SlotTeardown, false},
		{"Settings", 0, true},
		{"", 0, true},
		{"draw", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseSlot(tt.name)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownSlot) {
					t.Errorf("ParseSlot(%q) error = %v, want ErrUnknownSlot", tt.name, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSlot(%q) unexpected error: %v", tt.name, err)
			}
			if got != tt.want {
				t.Errorf("ParseSlot(%q) = %v, want %v", tt.name, got, tt.want)
			}
			if got.String() != tt.name {
				t.Errorf("String() = %q, want %q", got.String(), tt.name)
			}
		})
	}
}

func TestSlot_Valid(t *testing.T) {
	t.Parallel()

	for _, s := range []Slot{SlotSettings, SlotTeardown} {
		if !s.Valid() {
			t.Errorf("%v.Valid() = false", s)
		}
	}
	for _, s := range []Slot{0, 3, -1} {
		if s.Valid() {
			t.Errorf("Slot(%d).Valid() = true", int(s))
		}
	}
}
