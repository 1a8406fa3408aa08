package main

import (
	"testing"

	"github.com/samvad-hq/mtg-card-harvester/internal/config"
	"github.com/samvad-hq/mtg-card-harvester/pkg/endpoint"
)

func TestParseParamsKeepsOrderAndValues(t *testing.T) {
	got, err := parseParams([]string{"name=Opt|Black Lotus", "set=KTK", "text=a=b"})
	if err != nil {
		t.Fatalf("parseParams: %v", err)
	}
	want := []endpoint.QueryParam{
		{Name: "name", Value: "Opt|Black Lotus"},
		{Name: "set", Value: "KTK"},
		{Name: "text", Value: "a=b"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d params, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("param %d = %+v want %+v", i, got[i], want[i])
		}
	}
}

func TestParseParamsRejectsMissingName(t *testing.T) {
	for _, raw := range []string{"novalue", "=x"} {
		if _, err := parseParams([]string{raw}); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestLookupRequestFromFlags(t *testing.T) {
	req, err := lookupRequest(&config.Config{}, "", "api.example.test", "unreachable", nil)
	if err != nil {
		t.Fatalf("lookupRequest: %v", err)
	}
	if req.Path != endpoint.PathUnreachable || req.Host != "api.example.test" {
		t.Fatalf("unexpected request %+v", req)
	}
	if _, err := lookupRequest(&config.Config{}, "", "", "decks", nil); err == nil {
		t.Fatalf("expected error for unknown path")
	}
}

func TestRootCommandHasSubcommands(t *testing.T) {
	root := newRootCommand()
	for _, name := range []string{"fetch", "harvest"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Fatalf("missing %s subcommand: %v", name, err)
		}
	}
}
