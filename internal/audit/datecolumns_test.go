package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certaudit/pkg/contracts/domain"
)

func TestCheckDateColumns(t *testing.T) {
	records := []domain.Record{
		{IssuedAt: "01/01/2024", Validity: "31/12/2024", URL: "ok"},
		{IssuedAt: "31/02/2024", Validity: "2024-12-31", URL: "bad"},
		{IssuedAt: "", Validity: "", URL: "blank"},
	}
	fields := []domain.Field{domain.FieldIssuedAt, domain.FieldValidity}

	t.Run("blank allowed", func(t *testing.T) {
		got := CheckDateColumns(records, fields, "", "", false)
		require.Len(t, got, 2)
		assert.Equal(t, "Date problem: column [issued_at] value [31/02/2024]", got[0].Message)
		assert.Equal(t, "Date problem: column [validity] value [2024-12-31]", got[1].Message)
		for _, f := range got {
			assert.Equal(t, "bad", f.ReportKey)
			assert.Equal(t, domain.CheckDates, f.Check)
		}
	})

	t.Run("blank is error", func(t *testing.T) {
		got := CheckDateColumns(records, fields, "", domain.FieldURL, true)
		require.Len(t, got, 4)
		assert.Equal(t, "Date problem: column [issued_at] is empty", got[2].Message)
		assert.Equal(t, "blank", got[3].ReportKey)
	})
}
