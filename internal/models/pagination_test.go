package models

import (
	"errors"
	"testing"

	"github.com/fieldserve/backend/internal/apperr"
)

func TestParsePageDefaults(t *testing.T) {
	p, err := ParsePage("", "")
	if err != nil {
		t.Fatalf("ParsePage: %v", err)
	}
	if p.Limit != DefaultLimit || p.Offset != 0 {
		t.Errorf("got %+v, want limit=%d offset=0", p, DefaultLimit)
	}
}

func TestParsePageExplicit(t *testing.T) {
	p, err := ParsePage("200", "10")
	if err != nil {
		t.Fatalf("ParsePage: %v", err)
	}
	if p.Limit != 200 || p.Offset != 10 {
		t.Errorf("got %+v, want limit=200 offset=10", p)
	}
}

func TestParsePageRejectsOutOfBounds(t *testing.T) {
	cases := []struct{ limit, offset string }{
		{"0", ""},
		{"-1", ""},
		{"201", ""},
		{"", "-1"},
		{"abc", ""},
		{"", "abc"},
	}
	for _, tc := range cases {
		if _, err := ParsePage(tc.limit, tc.offset); !errors.Is(err, apperr.ErrInvalidArgument) {
			t.Errorf("ParsePage(%q, %q): got %v, want invalid argument", tc.limit, tc.offset, err)
		}
	}
}
