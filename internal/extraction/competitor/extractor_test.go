package competitor

import "testing"

func TestNormalizeCountry(t *testing.T) {
	cases := map[string]string{
		"nigeria": "NG",
		"NGA":     "NG",
		"ng":      "NG",
		"":        "",
		"a very long free text country name": "",
	}
	for in, want := range cases {
		if got := normalizeCountry(in); got != want {
			t.Errorf("normalizeCountry(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeWebsite(t *testing.T) {
	cases := map[string]string{
		"kuda.com/":          "https://kuda.com",
		"https://carbon.ng/": "https://carbon.ng",
		"http://foo.com":     "http://foo.com",
		"":                   "",
	}
	for in, want := range cases {
		if got := normalizeWebsite(in); got != want {
			t.Errorf("normalizeWebsite(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseFundingString(t *testing.T) {
	cases := []struct {
		in      string
		want    int64
		wantOK  bool
	}{
		{"$2.5B", 2_500_000_000, true},
		{"€800K", 800_000, true},
		{"tbd", 0, false},
		{"", 0, false},
		{"$3M", 3_000_000, true},
	}
	for _, c := range cases {
		got, ok := ParseFundingString(c.in)
		if ok != c.wantOK {
			t.Errorf("ParseFundingString(%q) ok = %v, want %v", c.in, ok, c.wantOK)
			continue
		}
		if ok && got != c.want {
			t.Errorf("ParseFundingString(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestExtractSocialLinksExcludesNonProfilePaths(t *testing.T) {
	content := `Follow us at https://twitter.com/intent/tweet?text=hi and
	our real profile https://twitter.com/acmecorp plus
	https://www.linkedin.com/company/acmecorp and share link
	https://facebook.com/sharer/sharer.php?u=x and page https://facebook.com/acmecorp`

	links := ExtractSocialLinks(content)
	if links.Twitter != "https://twitter.com/acmecorp" {
		t.Errorf("Twitter = %q, want real profile not intent link", links.Twitter)
	}
	if links.Facebook != "https://facebook.com/acmecorp" {
		t.Errorf("Facebook = %q, want real profile not sharer link", links.Facebook)
	}
	if links.LinkedIn != "https://www.linkedin.com/company/acmecorp" {
		t.Errorf("LinkedIn = %q", links.LinkedIn)
	}
}

func TestParseJSONArrayLocatesBrackets(t *testing.T) {
	raw := "Here is the result:\n[{\"name\":\"Acme\",\"website\":\"acme.com\"}]\nThanks!"
	out, err := parseJSONArray[rawCandidate](raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0].Name != "Acme" {
		t.Errorf("unexpected parse result: %+v", out)
	}
}

func TestParseJSONArrayNoBracketsReturnsError(t *testing.T) {
	if _, err := parseJSONArray[rawCandidate]("no json here"); err == nil {
		t.Error("expected error for missing brackets")
	}
}
