package naming

import "testing"

func TestRoundTrip(t *testing.T) {
	names := []string{"a", "b", "value", "x1", "\u00e9lan", "名前", "$single", "trailing$", "dispatchReceiver", "implicitReceiver0"}
	for _, p := range []Policy{Default{}, Legacy{}} {
		for _, name := range names {
			if !ValidParameterName(name) {
				t.Fatalf("%q should be valid", name)
			}
			if got := p.RecoverParameterName(p.BackingPropertyName(name)); got != name {
				t.Errorf("%T round-trip of %q gave %q", p, name, got)
			}
		}
	}
}

func TestNormalizationIsApplied(t *testing.T) {
	decomposed := "e\u0301"
	if ValidParameterName(decomposed) {
		t.Fatalf("non-NFC name accepted")
	}
	if got := (Default{}).BackingPropertyName(decomposed); got != "$$\u00e9$$" {
		t.Fatalf("backing name not normalized: %q", got)
	}
}

func TestInitializationInfo(t *testing.T) {
	var p Default
	name := p.InitializationInfoName(2)
	if name != "$initializationInfo$2" || !p.IsInitializationInfo(name) {
		t.Fatalf("unexpected bitmask field name %q", name)
	}
	if p.IsInitializationInfo(p.BackingPropertyName("a")) {
		t.Fatalf("backing property mistaken for bitmask word")
	}
}

func TestElementAdderNames(t *testing.T) {
	if got := (Default{}).ElementAdderName("args"); got != "argsElement" {
		t.Fatalf("default adder name %q", got)
	}
	if got := (Legacy{}).ElementAdderName("args"); got != "element" {
		t.Fatalf("legacy adder name %q", got)
	}
	if _, err := ByName("fancy"); err == nil {
		t.Fatalf("unknown policy accepted")
	}
}
