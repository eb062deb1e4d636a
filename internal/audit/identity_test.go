package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certaudit/pkg/contracts/domain"
)

func TestReconcile_ResolvesUniqueCandidate(t *testing.T) {
	records := []domain.Record{
		{TaxID: "", Name: "ACME", URL: "u3"},
		{TaxID: "11", Name: "ACME", URL: "u1"},
		{TaxID: "", Name: "ACME", URL: "u4"},
		{TaxID: "11", Name: "ACME", URL: "u2"},
		{TaxID: "", Name: "ACME", URL: "u5"},
	}

	out, findings := Reconcile(records, IdentityOptions{})

	for _, r := range out {
		assert.Equal(t, "11", r.TaxID, r.URL)
	}
	require.Len(t, findings, 3)
	seen := map[string]int{}
	for _, f := range findings {
		seen[f.ReportKey]++
		assert.Equal(t, "Document without tax ID, resolved to [11]", f.Message)
		assert.Equal(t, domain.SeverityInfo, f.Severity)
		assert.Equal(t, "u2", f.RefKey)
	}
	assert.Equal(t, map[string]int{"u3": 1, "u4": 1, "u5": 1}, seen)

	assert.Equal(t, "", records[0].TaxID, "input must not be modified")
}

func TestReconcile_Ambiguous(t *testing.T) {
	records := []domain.Record{
		{TaxID: "22", Name: "ACME", URL: "u2"},
		{TaxID: "11", Name: "ACME", URL: "u1"},
		{TaxID: "", Name: "ACME", URL: "u3"},
	}

	out, findings := Reconcile(records, IdentityOptions{})

	assert.Equal(t, records, out)
	require.Len(t, findings, 2)
	assert.Equal(t, "Document without tax ID; name [ACME] may belong to tax ID [11]", findings[0].Message)
	assert.Equal(t, "u1", findings[0].RefKey)
	assert.Equal(t, "Document without tax ID; name [ACME] may belong to tax ID [22]", findings[1].Message)
	assert.Equal(t, "u2", findings[1].RefKey)
	for _, f := range findings {
		assert.Equal(t, "u3", f.ReportKey)
		assert.True(t, f.IsError())
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	records := []domain.Record{
		{TaxID: "11", Name: "ACME", URL: "u1"},
		{TaxID: "", Name: "ACME", URL: "u2"},
		{TaxID: "22", Name: "Beta", URL: "u3"},
		{TaxID: "22", Name: "", URL: "u4"},
	}

	first, firstFindings := Reconcile(records, IdentityOptions{})
	require.Len(t, firstFindings, 1)

	second, secondFindings := Reconcile(first, IdentityOptions{})
	assert.Equal(t, first, second)
	assert.Empty(t, secondFindings)
}

func TestReconcile_IdempotentWithInconsistentNames(t *testing.T) {
	records := []domain.Record{
		{TaxID: "11", Name: "ACME", URL: "u1"},
		{TaxID: "11", Name: "Zeta Servicos", URL: "u2"},
		{TaxID: "", Name: "Zeta Servicos", URL: "u3"},
	}

	first, firstFindings := Reconcile(records, IdentityOptions{})
	assert.Equal(t, "11", first[2].TaxID)

	var messages []string
	for _, f := range firstFindings {
		messages = append(messages, f.ReportKey+" "+f.Message)
	}
	assert.ElementsMatch(t, []string{
		"u3 Document without tax ID, resolved to [11]",
		"u2 Inconsistent name for same tax ID: found [Zeta Servicos] expected [ACME]",
		"u3 Inconsistent name for same tax ID: found [Zeta Servicos] expected [ACME]",
	}, messages)

	second, secondFindings := Reconcile(first, IdentityOptions{})
	assert.Equal(t, first, second)
	for _, f := range secondFindings {
		assert.Contains(t, firstFindings, f)
	}
	assert.Len(t, secondFindings, 2)
}

func TestReconcile_LegalSuffixAccepted(t *testing.T) {
	records := []domain.Record{
		{TaxID: "11", Name: "ACME", URL: "u1"},
		{TaxID: "11", Name: "ACME SA", URL: "u2"},
	}

	_, findings := Reconcile(records, IdentityOptions{})
	assert.Empty(t, findings)
}

func TestReconcile_InconsistentName(t *testing.T) {
	records := []domain.Record{
		{TaxID: "11", Name: "Beta Comercio", URL: "u2"},
		{TaxID: "11", Name: "ACME LTDA", URL: "u1"},
		{TaxID: "11", Name: "Acme Ltda.", URL: "u3"},
		{TaxID: "11", Name: "", URL: "u4"},
	}

	_, findings := Reconcile(records, IdentityOptions{})

	require.Len(t, findings, 1)
	assert.Equal(t, "u2", findings[0].ReportKey)
	assert.Equal(t, "u1", findings[0].RefKey)
	assert.Equal(t, "Inconsistent name for same tax ID: found [Beta Comercio] expected [ACME LTDA]", findings[0].Message)
}

func TestReconcile_MissingData(t *testing.T) {
	records := []domain.Record{
		{URL: "u1"},
		{Name: "Gamma", URL: "u2"},
		{Name: "Gamma", URL: "u3"},
	}

	out, findings := Reconcile(records, IdentityOptions{})

	assert.Equal(t, records, out)
	require.Len(t, findings, 3)
	assert.Equal(t, MsgNoIdentifiableTaxID, findings[0].Message)
	assert.Equal(t, MsgNoIdentifiableTaxID, findings[1].Message)
	assert.Equal(t, MsgMissingTaxIDAndName, findings[2].Message)
	assert.Equal(t, "u1", findings[2].ReportKey)
}

func TestReconcile_FuzzyFallback(t *testing.T) {
	records := []domain.Record{
		{TaxID: "11", Name: "ACME LTDA", URL: "u1"},
		{TaxID: "", Name: "Acme Ltda.", URL: "u2"},
	}

	t.Run("disabled", func(t *testing.T) {
		out, findings := Reconcile(records, IdentityOptions{})
		assert.Equal(t, "", out[1].TaxID)
		require.Len(t, findings, 1)
		assert.Equal(t, MsgNoIdentifiableTaxID, findings[0].Message)
	})

	t.Run("enabled", func(t *testing.T) {
		out, findings := Reconcile(records, IdentityOptions{FuzzyFallback: true})
		assert.Equal(t, "11", out[1].TaxID)
		require.Len(t, findings, 1)
		assert.Equal(t, "Document without tax ID, resolved to [11]", findings[0].Message)
		assert.Equal(t, "u1", findings[0].RefKey)
	})

	t.Run("ambiguous", func(t *testing.T) {
		more := append(domain.CloneRecords(records), domain.Record{TaxID: "22", Name: "ACME  LTDA", URL: "u3"})
		out, findings := Reconcile(more, IdentityOptions{FuzzyFallback: true})
		assert.Equal(t, "", out[1].TaxID)
		require.Len(t, findings, 2)
		assert.Contains(t, findings[0].Message, "[11]")
		assert.Contains(t, findings[1].Message, "[22]")
	})
}

func TestReconcile_CustomSimilarity(t *testing.T) {
	records := []domain.Record{
		{TaxID: "11", Name: "A", URL: "u1"},
		{TaxID: "11", Name: "B", URL: "u2"},
	}
	never := SimilarityFunc(func(a, b string) int { return 0 })

	_, findings := Reconcile(records, IdentityOptions{Similarity: never, Threshold: 1})
	require.Len(t, findings, 1)
	assert.Equal(t, "u2", findings[0].ReportKey)
}

func TestReconcile_ReportKeysExist(t *testing.T) {
	records := []domain.Record{
		{TaxID: "11", Name: "ACME", URL: "u1"},
		{TaxID: "11", Name: "Zeta Servicos", URL: "u2"},
		{TaxID: "", Name: "ACME", URL: "u3"},
		{TaxID: "", Name: "", URL: "u4"},
		{TaxID: "33", Name: "Omega", URL: "u5"},
		{TaxID: "", Name: "Omega", URL: "u6"},
		{TaxID: "44", Name: "Omega", URL: "u7"},
	}
	urls := map[string]bool{}
	for _, r := range records {
		urls[r.URL] = true
	}

	_, findings := Reconcile(records, IdentityOptions{})
	require.NotEmpty(t, findings)
	for _, f := range findings {
		assert.True(t, urls[f.ReportKey], f.ReportKey)
	}
}
