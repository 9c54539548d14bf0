package dedup_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relocato/leadimport/internal/dedup"
	"github.com/relocato/leadimport/internal/model"
	"github.com/relocato/leadimport/tests/testutil"
)

func seedCustomer(t *testing.T, s interface {
	CreateCustomer(ctx context.Context, c model.Customer) error
}, number, name, email, phone, fromAddress string) {
	t.Helper()
	require.NoError(t, s.CreateCustomer(context.Background(), model.Customer{
		CustomerNumber: number,
		Name:           name,
		Email:          email,
		Phone:          phone,
		FromAddress:    fromAddress,
	}))
}

func TestFindExistingByEmail(t *testing.T) {
	s := testutil.NewTestStore(t)
	seedCustomer(t, s, "K202501001", "Max Mustermann", "max@example.com", "+491711111111", "Musterstraße 12, 33605 Bielefeld")

	checker := dedup.NewChecker(s)
	match, err := checker.FindExisting(context.Background(), &model.ParsedLead{
		Name:  "Jemand Anderes",
		Email: "max@example.com",
		Phone: "+49999999999",
	})
	require.NoError(t, err)
	require.NotNil(t, match)

	assert.Equal(t, dedup.MatchEmail, match.Field)
	assert.Equal(t, "K202501001", match.Customer.CustomerNumber)
}

func TestFindExistingByPhoneAfterEmailMiss(t *testing.T) {
	s := testutil.NewTestStore(t)
	seedCustomer(t, s, "K202501001", "Max Mustermann", "max@example.com", "+491711111111", "")

	checker := dedup.NewChecker(s)
	match, err := checker.FindExisting(context.Background(), &model.ParsedLead{
		Name:  "Max Mustermann",
		Email: "andere@example.com",
		Phone: "+491711111111",
	})
	require.NoError(t, err)
	require.NotNil(t, match)

	assert.Equal(t, dedup.MatchPhone, match.Field)
}

func TestFindExistingByNameAndAddress(t *testing.T) {
	s := testutil.NewTestStore(t)
	seedCustomer(t, s, "K202501001", "Max Mustermann", "max@example.com", "+491711111111", "Musterstraße 12, 33605 Bielefeld")

	checker := dedup.NewChecker(s)
	match, err := checker.FindExisting(context.Background(), &model.ParsedLead{
		Name:        "Max Mustermann",
		FromAddress: "musterstraße  12,  33605 Bielefeld",
	})
	require.NoError(t, err)
	require.NotNil(t, match)

	assert.Equal(t, dedup.MatchNameAddress, match.Field,
		"address comparison ignores case and extra whitespace")
}

func TestFindExistingMatchesEitherAddressEnd(t *testing.T) {
	s := testutil.NewTestStore(t)
	require.NoError(t, s.CreateCustomer(context.Background(), model.Customer{
		CustomerNumber: "K202501001",
		Name:           "Max Mustermann",
		ToAddress:      "Zielweg 7, 80331 München",
	}))

	checker := dedup.NewChecker(s)

	// Lead carries only a destination address.
	match, err := checker.FindExisting(context.Background(), &model.ParsedLead{
		Name:      "Max Mustermann",
		ToAddress: "Zielweg 7, 80331 München",
	})
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, dedup.MatchNameAddress, match.Field)

	// Lead origin equal to the stored destination counts too.
	match, err = checker.FindExisting(context.Background(), &model.ParsedLead{
		Name:        "Max Mustermann",
		FromAddress: "Zielweg 7, 80331 München",
	})
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "K202501001", match.Customer.CustomerNumber)
}

func TestFindExistingNameWithoutAddressIsNoMatch(t *testing.T) {
	s := testutil.NewTestStore(t)
	seedCustomer(t, s, "K202501001", "Max Mustermann", "max@example.com", "+491711111111", "Musterstraße 12, 33605 Bielefeld")

	checker := dedup.NewChecker(s)
	match, err := checker.FindExisting(context.Background(), &model.ParsedLead{
		Name:        "Max Mustermann",
		FromAddress: "Andere Straße 1, 10115 Berlin",
	})
	require.NoError(t, err)
	assert.Nil(t, match, "a shared name alone is not a duplicate")
}

func TestFindExistingEmptyFieldsNeverMatch(t *testing.T) {
	s := testutil.NewTestStore(t)
	seedCustomer(t, s, "K202501001", "Unbekannt", "", "", "")

	checker := dedup.NewChecker(s)
	match, err := checker.FindExisting(context.Background(), &model.ParsedLead{
		Name: "Unbekannt",
	})
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestIsDuplicate(t *testing.T) {
	s := testutil.NewTestStore(t)
	seedCustomer(t, s, "K202501001", "Max Mustermann", "max@example.com", "", "")

	checker := dedup.NewChecker(s)

	dup, err := checker.IsDuplicate(context.Background(), &model.ParsedLead{Email: "max@example.com"})
	require.NoError(t, err)
	assert.True(t, dup)

	dup, err = checker.IsDuplicate(context.Background(), &model.ParsedLead{Email: "neu@example.com"})
	require.NoError(t, err)
	assert.False(t, dup)
}
