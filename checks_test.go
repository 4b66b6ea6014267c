package connect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreAuthChecksMapFlagsToErrors(t *testing.T) {
	cases := []struct {
		name    string
		account *LocalAccount
		want    error
	}{
		{"locked", &LocalAccount{Locked: true}, ErrAccountLocked},
		{"disabled", &LocalAccount{Disabled: true}, ErrAccountDisabled},
		{"expired", &LocalAccount{AccountExpired: true}, ErrAccountExpired},
		{"clean", &LocalAccount{}, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := RunAccountChecks(DefaultPreAuthChecks(), tc.account)
			if tc.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.want)
			}
		})
	}
}

func TestPreAuthCheckOrder(t *testing.T) {
	// Locked wins over disabled wins over expired.
	account := &LocalAccount{Locked: true, Disabled: true, AccountExpired: true}
	assert.ErrorIs(t, RunAccountChecks(DefaultPreAuthChecks(), account), ErrAccountLocked)

	account = &LocalAccount{Disabled: true, AccountExpired: true}
	assert.ErrorIs(t, RunAccountChecks(DefaultPreAuthChecks(), account), ErrAccountDisabled)
}

func TestPostAuthChecks(t *testing.T) {
	assert.ErrorIs(t,
		RunAccountChecks(DefaultPostAuthChecks(), &LocalAccount{CredentialsExpired: true}),
		ErrCredentialsExpired,
	)
	assert.NoError(t, RunAccountChecks(DefaultPostAuthChecks(), &LocalAccount{Locked: true}))
}

func TestRunAccountChecksNilAccount(t *testing.T) {
	require.ErrorIs(t, RunAccountChecks(DefaultPreAuthChecks(), nil), ErrAccountNotFound)
}

func TestRunAccountChecksStopsAtFirstFailure(t *testing.T) {
	calls := []string{}
	first := AccountCheck{Name: "first", Check: func(*LocalAccount) error {
		calls = append(calls, "first")
		return ErrAccountLocked
	}}
	second := AccountCheck{Name: "second", Check: func(*LocalAccount) error {
		calls = append(calls, "second")
		return nil
	}}

	err := RunAccountChecks([]AccountCheck{first, second}, &LocalAccount{})
	require.ErrorIs(t, err, ErrAccountLocked)
	assert.Equal(t, []string{"first"}, calls)
}
