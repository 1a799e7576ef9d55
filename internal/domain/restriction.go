package domain

// RestrictionKind identifies which live flag is currently blocking an email,
// in guard priority order. The state is computed on read from the store's
// live flags; TTL expiry is the only thing that clears a restriction.
type RestrictionKind int

const (
	RestrictionNone RestrictionKind = iota
	RestrictionCooldown
	RestrictionSpamLocked
	RestrictionAccountLocked
)

func (k RestrictionKind) String() string {
	switch k {
	case RestrictionCooldown:
		return "cooldown"
	case RestrictionSpamLocked:
		return "spam_locked"
	case RestrictionAccountLocked:
		return "account_locked"
	default:
		return "none"
	}
}

// Err maps a restriction to its domain error, or nil for RestrictionNone.
func (k RestrictionKind) Err() error {
	switch k {
	case RestrictionCooldown:
		return ErrCooldown
	case RestrictionSpamLocked:
		return ErrSpamLocked
	case RestrictionAccountLocked:
		return ErrAccountLocked
	default:
		return nil
	}
}
