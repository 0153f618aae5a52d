package main

import "testing"

func TestParseArgs(t *testing.T) {
	opts, err := parseArgs([]string{"-p", "office", "-o", "media-type=photographic sides=one-sided", "print-quality=5"})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if opts.printer != "office" || opts.proposed != "print-quality=5" {
		t.Fatalf("unexpected options: %+v", opts)
	}
	if len(opts.current) != 2 || opts.current[0].Name != "media-type" {
		t.Fatalf("current options: %v", opts.current)
	}
}

func TestParseArgsSingleProposed(t *testing.T) {
	if _, err := parseArgs([]string{"a=1", "b=2"}); err == nil {
		t.Fatal("two proposed options should fail")
	}
}
