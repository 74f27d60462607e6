package domain

import (
	"errors"
	"testing"
)

func TestDefaultParamsAreValid(t *testing.T) {
	p := DefaultProfile()
	if err := p.Trim.Validate(); err != nil {
		t.Fatalf("default trim params invalid: %v", err)
	}
	if err := p.Filter.Validate(); err != nil {
		t.Fatalf("default filter params invalid: %v", err)
	}
	if err := p.Index.Validate(); err != nil {
		t.Fatalf("default index params invalid: %v", err)
	}
}

func TestTrimParams_Validate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*TrimParams)
	}{
		{"trim_qual_right zero", func(p *TrimParams) { p.TrimQualRight = 0 }},
		{"bad qual type", func(p *TrimParams) { p.TrimQualType = "median" }},
		{"window zero", func(p *TrimParams) { p.TrimQualWindow = 0 }},
		{"min_len negative", func(p *TrimParams) { p.MinLen = -1 }},
		{"bad lc method", func(p *TrimParams) { p.LCMethod = "mask" }},
		{"lc threshold above range", func(p *TrimParams) { p.LCThreshold = 101 }},
		{"derep out of range", func(p *TrimParams) { p.Derep = DerepMode{"6"} }},
	}
	for _, c := range cases {
		p := DefaultTrimParams()
		c.mutate(&p)
		err := p.Validate()
		if err == nil {
			t.Errorf("%s: expected validation error", c.name)
			continue
		}
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%s: expected ErrInvalidConfig, got %v", c.name, err)
		}
	}

	p := DefaultTrimParams()
	p.LCThreshold = 0
	if err := p.Validate(); err != nil {
		t.Fatalf("expected lc_threshold=0 to be valid, got %v", err)
	}
}

func TestFilterParams_Validate(t *testing.T) {
	p := DefaultFilterParams()
	p.Mode = "semi-global"
	p.Sensitivity = "ultra"
	p.Threads = 0
	err := p.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !IsKind(err, KindInvalidConfig) {
		t.Fatalf("expected KindInvalidConfig, got %v", err)
	}
}

func TestParseDerep(t *testing.T) {
	cases := []struct {
		in   []string
		want string
	}{
		{[]string{"1", "4"}, "14"},
		{[]string{"14"}, "14"},
		{[]string{"1,4"}, "14"},
		{[]string{"4", "1"}, "41"},
		{nil, ""},
	}
	for _, c := range cases {
		got, err := ParseDerep(c.in...)
		if err != nil {
			t.Fatalf("ParseDerep(%v) error: %v", c.in, err)
		}
		if got.Token(false) != c.want {
			t.Errorf("ParseDerep(%v).Token(false) = %q, want %q", c.in, got.Token(false), c.want)
		}
	}

	if _, err := ParseDerep("17"); err == nil {
		t.Fatal("expected error for code 7")
	}
}

func TestDerepToken_Raw(t *testing.T) {
	if got := (DerepMode{"1", "4"}).Token(false); got != "14" {
		t.Fatalf("expected 14, got %q", got)
	}
	if got := (DerepMode{"2"}).Token(false); got != "2" {
		t.Fatalf("expected raw 2, got %q", got)
	}
}

func TestDerepToken_ExpandsSubsets(t *testing.T) {
	cases := []struct {
		in   DerepMode
		want string
	}{
		{DerepMode{"2"}, "12"},
		{DerepMode{"3"}, "13"},
		{DerepMode{"5"}, "45"},
		{DerepMode{"1"}, "1"},
		{DerepMode{"4", "1"}, "14"},
		{DerepMode{"5", "2", "2"}, "1245"},
	}
	for _, c := range cases {
		if got := c.in.Token(true); got != c.want {
			t.Errorf("%v.Token(true) = %q, want %q", c.in, got, c.want)
		}
	}

	// 2 implies 1, so both selections must reach the tool identically.
	if (DerepMode{"2"}).Token(true) != (DerepMode{"1", "2"}).Token(true) {
		t.Fatal("expected [2] and [1 2] to expand identically")
	}
}
