package dedup

import (
	"context"
	"errors"
	"testing"

	"github.com/compintel/discovery/internal/models"
)

func TestNormalizeDomain(t *testing.T) {
	cases := map[string]string{
		"https://www.Kuda.com/":  "kuda.com",
		"http://carbon.ng":       "carbon.ng",
		"paystack.com":           "paystack.com",
		"":                       "",
	}
	for in, want := range cases {
		if got := NormalizeDomain(in); got != want {
			t.Errorf("NormalizeDomain(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDedupeWithinBatchFirstOccurrenceWins(t *testing.T) {
	d := New(nil)
	candidates := []models.BasicCompetitor{
		{Name: "Kuda", Website: "https://kuda.com"},
		{Name: "Kuda Duplicate", Website: "https://www.kuda.com"},
		{Name: "Carbon", Website: "https://carbon.ng"},
	}
	out := d.Dedupe(context.Background(), candidates, nil, nil)
	if len(out) != 2 {
		t.Fatalf("expected 2 survivors, got %d", len(out))
	}
	if out[0].Name != "Kuda" {
		t.Errorf("expected first occurrence to win, got %q", out[0].Name)
	}
}

func TestDedupeDropsExistingCorpusDomains(t *testing.T) {
	d := New(nil)
	candidates := []models.BasicCompetitor{
		{Name: "Paystack", Website: "https://paystack.com"},
		{Name: "Flutterwave", Website: "https://flutterwave.com"},
	}
	existing := map[string]struct{}{"paystack.com": {}}
	out := d.Dedupe(context.Background(), candidates, existing, nil)
	if len(out) != 1 || out[0].Name != "Flutterwave" {
		t.Errorf("expected only Flutterwave to survive, got %+v", out)
	}
}

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.vec, f.err
}

func TestDedupeSemanticMatchDrops(t *testing.T) {
	d := New(fakeEmbedder{vec: []float32{1, 0, 0}})
	candidates := []models.BasicCompetitor{{Name: "Acme Clone", Website: "https://acmeclone.com"}}
	existing := map[string][]float32{"acme-id": {1, 0, 0}}
	out := d.Dedupe(context.Background(), candidates, nil, existing)
	if len(out) != 0 {
		t.Errorf("expected semantic duplicate to be dropped, got %+v", out)
	}
}

func TestDedupeSemanticFailureAdmitsCandidate(t *testing.T) {
	d := New(fakeEmbedder{err: errors.New("embedding provider down")})
	candidates := []models.BasicCompetitor{{Name: "Acme", Website: "https://acme.com"}}
	existing := map[string][]float32{"other-id": {1, 0, 0}}
	out := d.Dedupe(context.Background(), candidates, nil, existing)
	if len(out) != 1 {
		t.Errorf("expected candidate admitted on embedder failure, got %+v", out)
	}
}
