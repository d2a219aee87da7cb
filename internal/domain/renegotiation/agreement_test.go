package renegotiation

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status   Status
		expected string
	}{
		{StatusActive, "ACTIVE"},
		{StatusBroken, "BROKEN"},
		{StatusSettled, "SETTLED"},
		{StatusCancelled, "CANCELLED"},
		{Status("Z"), "Z"},
	}

	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.status.String())
		})
	}
}

func TestStatus_IsValid(t *testing.T) {
	assert.True(t, StatusActive.IsValid())
	assert.True(t, StatusBroken.IsValid())
	assert.True(t, StatusSettled.IsValid())
	assert.True(t, StatusCancelled.IsValid())
	assert.False(t, Status("Z").IsValid())
	assert.False(t, Status("").IsValid())
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusActive.IsTerminal())
	assert.True(t, StatusBroken.IsTerminal())
	assert.True(t, StatusSettled.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
}

func TestDocumentList_Value(t *testing.T) {
	v, err := DocumentList{"NF-001", "NF-002"}.Value()
	require.NoError(t, err)
	assert.Equal(t, "NF-001,NF-002", v)

	v, err = DocumentList{}.Value()
	require.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestDocumentList_Scan(t *testing.T) {
	t.Run("string", func(t *testing.T) {
		var d DocumentList
		require.NoError(t, d.Scan("NF-001,NF-002"))
		assert.Equal(t, DocumentList{"NF-001", "NF-002"}, d)
	})

	t.Run("bytes", func(t *testing.T) {
		var d DocumentList
		require.NoError(t, d.Scan([]byte("NF-001")))
		assert.Equal(t, DocumentList{"NF-001"}, d)
	})

	t.Run("empty and nil", func(t *testing.T) {
		var d DocumentList
		require.NoError(t, d.Scan(""))
		assert.Empty(t, d)
		require.NoError(t, d.Scan(nil))
		assert.Empty(t, d)
	})

	t.Run("unsupported type", func(t *testing.T) {
		var d DocumentList
		assert.Error(t, d.Scan(42))
	})
}

func validParams() NewAgreementParams {
	return NewAgreementParams{
		TenantID:         uuid.New(),
		Branch:           "001",
		CustomerID:       uuid.New(),
		SourceDocuments:  []string{"NF-001", "NF-002"},
		InstallmentCount: 3,
		DueDateBase:      time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC),
		Settlement: Settlement{
			OriginalTotal: dec("450.00"),
			FinalValue:    dec("450.00"),
		},
		InterestValue: dec("20.00"),
		FineValue:     dec("10.00"),
		DiscountValue: dec("30.00"),
		OperatorID:    uuid.New(),
	}
}

func TestNewAgreement(t *testing.T) {
	t.Run("creates active agreement with event", func(t *testing.T) {
		p := validParams()

		ag, err := NewAgreement(p)

		require.NoError(t, err)
		assert.Equal(t, StatusActive, ag.Status)
		assert.Equal(t, p.TenantID, ag.TenantID)
		assert.Equal(t, p.CustomerID, ag.CustomerID)
		assert.Equal(t, DefaultSeries, ag.Series)
		assert.Equal(t, 3, ag.InstallmentCount)
		assert.True(t, dec("450.00").Equal(ag.FinalValue))
		assert.Nil(t, ag.ParentID)
		assert.True(t, ag.IsActive())
		assert.False(t, ag.IsRenegotiation())

		events := ag.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, "RenegotiationAgreementCreated", events[0].EventType())
	})

	t.Run("keeps explicit series", func(t *testing.T) {
		p := validParams()
		p.Series = "NEG"

		ag, err := NewAgreement(p)

		require.NoError(t, err)
		assert.Equal(t, "NEG", ag.Series)
	})

	t.Run("corrects non-positive installment count to one", func(t *testing.T) {
		for _, count := range []int{0, -5} {
			p := validParams()
			p.InstallmentCount = count

			ag, err := NewAgreement(p)

			require.NoError(t, err)
			assert.Equal(t, 1, ag.InstallmentCount)
		}
	})

	t.Run("rejects empty customer", func(t *testing.T) {
		p := validParams()
		p.CustomerID = uuid.Nil

		_, err := NewAgreement(p)

		assertDomainError(t, err, "INVALID_CUSTOMER")
	})

	t.Run("rejects empty source documents", func(t *testing.T) {
		p := validParams()
		p.SourceDocuments = nil

		_, err := NewAgreement(p)

		assertDomainError(t, err, "NO_ELIGIBLE_RECORDS")
	})

	t.Run("rejects empty operator", func(t *testing.T) {
		p := validParams()
		p.OperatorID = uuid.Nil

		_, err := NewAgreement(p)

		assertDomainError(t, err, "INVALID_OPERATOR")
	})

	t.Run("rejects discount exceeding consolidated total", func(t *testing.T) {
		p := validParams()
		p.DiscountValue = dec("450.01")

		_, err := NewAgreement(p)

		assertDomainError(t, err, "DISCOUNT_EXCEEDS_TOTAL")
	})

	t.Run("discount equal to total is allowed", func(t *testing.T) {
		p := validParams()
		p.DiscountValue = dec("450.00")
		p.Settlement.FinalValue = dec("30.00")

		_, err := NewAgreement(p)

		assert.NoError(t, err)
	})

	t.Run("records parent lineage", func(t *testing.T) {
		parentID := uuid.New()
		p := validParams()
		p.ParentID = &parentID

		ag, err := NewAgreement(p)

		require.NoError(t, err)
		require.NotNil(t, ag.ParentID)
		assert.Equal(t, parentID, *ag.ParentID)
		assert.True(t, ag.IsRenegotiation())
	})
}

func TestAgreement_Break(t *testing.T) {
	t.Run("breaks active agreement", func(t *testing.T) {
		ag, err := NewAgreement(validParams())
		require.NoError(t, err)
		ag.ClearDomainEvents()

		operatorID := uuid.New()
		versionBefore := ag.GetVersion()

		err = ag.Break(operatorID, "customer defaulted")

		require.NoError(t, err)
		assert.Equal(t, StatusBroken, ag.Status)
		assert.Equal(t, operatorID, ag.OperatorID)
		assert.Equal(t, "customer defaulted", ag.Notes)
		assert.Equal(t, versionBefore+1, ag.GetVersion())

		events := ag.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, "RenegotiationAgreementBroken", events[0].EventType())
	})

	t.Run("empty notes keep the previous notes", func(t *testing.T) {
		p := validParams()
		p.Notes = "original notes"
		ag, err := NewAgreement(p)
		require.NoError(t, err)

		require.NoError(t, ag.Break(uuid.New(), ""))

		assert.Equal(t, "original notes", ag.Notes)
	})

	t.Run("rejects break on non-active agreement", func(t *testing.T) {
		for _, status := range []Status{StatusBroken, StatusSettled, StatusCancelled} {
			ag, err := NewAgreement(validParams())
			require.NoError(t, err)
			ag.Status = status

			err = ag.Break(uuid.New(), "")

			assertDomainError(t, err, "AGREEMENT_NOT_ACTIVE")
		}
	})

	t.Run("rejects empty operator", func(t *testing.T) {
		ag, err := NewAgreement(validParams())
		require.NoError(t, err)

		err = ag.Break(uuid.Nil, "")

		assertDomainError(t, err, "INVALID_OPERATOR")
		assert.Equal(t, StatusActive, ag.Status)
	})
}
