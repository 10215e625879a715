package ledger

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestValidateSetRejectsMalformedSets(t *testing.T) {
	a, b := uuid.NewString(), uuid.NewString()

	cases := []struct {
		name    string
		entries []Entry
	}{
		{"empty", nil},
		{"zero amount", []Entry{{WalletID: a, Amount: 0, Type: EntryDeposit}}},
		{"unknown type", []Entry{{WalletID: a, Amount: 100, Type: "chargeback"}}},
		{"negative deposit", []Entry{{WalletID: a, Amount: -100, Type: EntryDeposit}}},
		{"positive withdrawal", []Entry{{WalletID: a, Amount: 100, Type: EntryWithdrawal}}},
		{"fee alone", []Entry{{WalletID: a, Amount: -10, Type: EntryFee}}},
		{"cashback alone", []Entry{{WalletID: a, Amount: 10, Type: EntryCashback}}},
		{"fee on wrong wallet", []Entry{
			{WalletID: a, Amount: -100, Type: EntryWithdrawal},
			{WalletID: b, Amount: -5, Type: EntryFee},
		}},
		{"fee exceeds withdrawal", []Entry{
			{WalletID: a, Amount: -100, Type: EntryWithdrawal},
			{WalletID: a, Amount: -200, Type: EntryFee},
		}},
		{"transfer to self", []Entry{
			{WalletID: a, Amount: -100, Type: EntryTransferOut},
			{WalletID: a, Amount: 100, Type: EntryTransferIn},
		}},
		{"unbalanced transfer", []Entry{
			{WalletID: a, Amount: -100, Type: EntryTransferOut},
			{WalletID: b, Amount: 90, Type: EntryTransferIn},
		}},
		{"missing transfer leg", []Entry{
			{WalletID: a, Amount: -100, Type: EntryTransferOut},
		}},
		{"cashback to receiver", []Entry{
			{WalletID: a, Amount: -100, Type: EntryTransferOut},
			{WalletID: b, Amount: 100, Type: EntryTransferIn},
			{WalletID: b, Amount: 1, Type: EntryCashback},
		}},
		{"cashback exceeds amount", []Entry{
			{WalletID: a, Amount: -100, Type: EntryTransferOut},
			{WalletID: b, Amount: 100, Type: EntryTransferIn},
			{WalletID: a, Amount: 150, Type: EntryCashback},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			set := OperationSet{CorrelationID: uuid.NewString(), Entries: tc.entries}
			if err := validateSet(set); !errors.Is(err, ErrInvalidSet) {
				t.Fatalf("expected ErrInvalidSet, got %v", err)
			}
		})
	}

	if err := validateSet(OperationSet{Entries: []Entry{{WalletID: a, Amount: 1, Type: EntryDeposit}}}); !errors.Is(err, ErrInvalidSet) {
		t.Fatalf("expected missing correlation id to fail, got %v", err)
	}
}

func TestValidateSetAcceptsWellFormedSets(t *testing.T) {
	a, b := uuid.NewString(), uuid.NewString()

	cases := []struct {
		name    string
		entries []Entry
	}{
		{"deposit", []Entry{{WalletID: a, Amount: 100, Type: EntryDeposit}}},
		{"plain withdrawal", []Entry{{WalletID: a, Amount: -100, Type: EntryWithdrawal}}},
		{"withdrawal with fee", []Entry{
			{WalletID: a, Amount: -100, Type: EntryWithdrawal},
			{WalletID: a, Amount: -5, Type: EntryFee},
		}},
		{"plain transfer", []Entry{
			{WalletID: a, Amount: -100, Type: EntryTransferOut, Counterparty: b},
			{WalletID: b, Amount: 100, Type: EntryTransferIn, Counterparty: a},
		}},
		{"transfer with cashback", []Entry{
			{WalletID: a, Amount: -100, Type: EntryTransferOut, Counterparty: b},
			{WalletID: b, Amount: 100, Type: EntryTransferIn, Counterparty: a},
			{WalletID: a, Amount: 1, Type: EntryCashback},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			set := OperationSet{CorrelationID: uuid.NewString(), Entries: tc.entries}
			if err := validateSet(set); err != nil {
				t.Fatalf("expected valid set, got %v", err)
			}
		})
	}
}
