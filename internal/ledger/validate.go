package ledger

import "fmt"

// A set never carries more than a transfer pair plus fee and cashback legs.
const maxEntries = 4

// validateSet enforces the per-kind shape rules before any lock is taken.
func validateSet(set OperationSet) error {
	if set.CorrelationID == "" {
		return fmt.Errorf("%w: missing correlation id", ErrInvalidSet)
	}
	if len(set.Entries) == 0 || len(set.Entries) > maxEntries {
		return fmt.Errorf("%w: between 1 and %d entries required", ErrInvalidSet, maxEntries)
	}

	counts := make(map[EntryType]int, len(set.Entries))
	for _, e := range set.Entries {
		if !e.Type.Valid() {
			return fmt.Errorf("%w: unknown entry type %q", ErrInvalidSet, e.Type)
		}
		if e.WalletID == "" {
			return fmt.Errorf("%w: entry missing wallet id", ErrInvalidSet)
		}
		if e.Amount == 0 {
			return fmt.Errorf("%w: zero amount entry", ErrInvalidSet)
		}
		counts[e.Type]++
	}

	switch {
	case counts[EntryDeposit] > 0:
		if len(set.Entries) != 1 || set.Entries[0].Amount <= 0 {
			return fmt.Errorf("%w: deposit must be a single credit", ErrInvalidSet)
		}
		return nil
	case counts[EntryWithdrawal] > 0:
		return validateWithdrawal(set, counts)
	case counts[EntryTransferOut] > 0 || counts[EntryTransferIn] > 0:
		return validateTransfer(set, counts)
	default:
		return fmt.Errorf("%w: fee and cashback entries cannot stand alone", ErrInvalidSet)
	}
}

func validateWithdrawal(set OperationSet, counts map[EntryType]int) error {
	if counts[EntryWithdrawal] != 1 || counts[EntryFee] > 1 ||
		counts[EntryWithdrawal]+counts[EntryFee] != len(set.Entries) {
		return fmt.Errorf("%w: withdrawal allows one debit plus an optional fee leg", ErrInvalidSet)
	}

	debit := entryOfType(set, EntryWithdrawal)
	if debit.Amount >= 0 {
		return fmt.Errorf("%w: withdrawal amount must be negative", ErrInvalidSet)
	}
	if fee := entryOfType(set, EntryFee); fee != nil {
		if fee.Amount >= 0 || fee.WalletID != debit.WalletID {
			return fmt.Errorf("%w: fee leg must debit the withdrawing wallet", ErrInvalidSet)
		}
		if -fee.Amount > -debit.Amount {
			return fmt.Errorf("%w: fee exceeds withdrawal amount", ErrInvalidSet)
		}
	}
	return nil
}

func validateTransfer(set OperationSet, counts map[EntryType]int) error {
	if counts[EntryTransferOut] != 1 || counts[EntryTransferIn] != 1 ||
		counts[EntryFee] > 1 || counts[EntryCashback] > 1 ||
		counts[EntryTransferOut]+counts[EntryTransferIn]+counts[EntryFee]+counts[EntryCashback] != len(set.Entries) {
		return fmt.Errorf("%w: transfer requires a debit/credit pair with optional fee and cashback legs", ErrInvalidSet)
	}

	out := entryOfType(set, EntryTransferOut)
	in := entryOfType(set, EntryTransferIn)
	if out.Amount >= 0 || in.Amount <= 0 {
		return fmt.Errorf("%w: transfer legs carry the wrong signs", ErrInvalidSet)
	}
	if out.WalletID == in.WalletID {
		return fmt.Errorf("%w: transfer legs target the same wallet", ErrInvalidSet)
	}
	if out.Amount+in.Amount != 0 {
		return fmt.Errorf("%w: transfer pair must sum to zero", ErrInvalidSet)
	}

	if fee := entryOfType(set, EntryFee); fee != nil {
		if fee.Amount >= 0 || fee.WalletID != out.WalletID {
			return fmt.Errorf("%w: fee leg must debit the paying wallet", ErrInvalidSet)
		}
		if -fee.Amount > in.Amount {
			return fmt.Errorf("%w: fee exceeds transfer amount", ErrInvalidSet)
		}
	}
	if cb := entryOfType(set, EntryCashback); cb != nil {
		if cb.Amount <= 0 || cb.WalletID != out.WalletID {
			return fmt.Errorf("%w: cashback leg must credit the paying wallet", ErrInvalidSet)
		}
		if cb.Amount > in.Amount {
			return fmt.Errorf("%w: cashback exceeds transfer amount", ErrInvalidSet)
		}
	}
	return nil
}

func entryOfType(set OperationSet, t EntryType) *Entry {
	for i := range set.Entries {
		if set.Entries[i].Type == t {
			return &set.Entries[i]
		}
	}
	return nil
}
