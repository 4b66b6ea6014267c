package connect

// AccountCheck is a named pure predicate over an account's status flags. A
// check returns nil when the account passes and a typed error otherwise.
type AccountCheck struct {
	Name  string
	Check func(account *LocalAccount) error
}

// CheckNotLocked fails locked accounts with ErrAccountLocked.
var CheckNotLocked = AccountCheck{
	Name: "account_not_locked",
	Check: func(account *LocalAccount) error {
		if account.Locked {
			return ErrAccountLocked
		}
		return nil
	},
}

// CheckEnabled fails disabled accounts with ErrAccountDisabled.
var CheckEnabled = AccountCheck{
	Name: "account_enabled",
	Check: func(account *LocalAccount) error {
		if account.Disabled {
			return ErrAccountDisabled
		}
		return nil
	},
}

// CheckNotExpired fails expired accounts with ErrAccountExpired.
var CheckNotExpired = AccountCheck{
	Name: "account_not_expired",
	Check: func(account *LocalAccount) error {
		if account.AccountExpired {
			return ErrAccountExpired
		}
		return nil
	},
}

// CheckCredentialsNotExpired fails accounts whose credentials have expired
// with ErrCredentialsExpired.
var CheckCredentialsNotExpired = AccountCheck{
	Name: "credentials_not_expired",
	Check: func(account *LocalAccount) error {
		if account.CredentialsExpired {
			return ErrCredentialsExpired
		}
		return nil
	},
}

// DefaultPreAuthChecks returns the checks run before a resolution is
// accepted. Order matters: locked before disabled before expired.
func DefaultPreAuthChecks() []AccountCheck {
	return []AccountCheck{CheckNotLocked, CheckEnabled, CheckNotExpired}
}

// DefaultPostAuthChecks returns the checks run after resolution.
func DefaultPostAuthChecks() []AccountCheck {
	return []AccountCheck{CheckCredentialsNotExpired}
}

// RunAccountChecks runs checks in order and stops at the first failure.
func RunAccountChecks(checks []AccountCheck, account *LocalAccount) error {
	if account == nil {
		return ErrAccountNotFound
	}
	for _, check := range checks {
		if check.Check == nil {
			continue
		}
		if err := check.Check(account); err != nil {
			return err
		}
	}
	return nil
}
