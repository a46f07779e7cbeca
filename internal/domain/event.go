package domain

import (
	"math/big"
)

// EventKind tags the fixed set of contract events the bot reacts to.
type EventKind string

const (
	KindNewGame           EventKind = "NewGame"
	KindGamePayment       EventKind = "GamePaymentEvent"
	KindReferralPayment   EventKind = "ReferalPaymentEvent"
	KindNewUserRegistered EventKind = "NewUserRegisteredEvent"
	KindWinnerPayment     EventKind = "WinnerPayment"
)

// Kinds lists every subscribed event kind in subscription order.
func Kinds() []EventKind {
	return []EventKind{
		KindNewGame,
		KindGamePayment,
		KindReferralPayment,
		KindNewUserRegistered,
		KindWinnerPayment,
	}
}

// Event is one decoded contract log entry. The concrete type carries the
// kind-specific arguments, so the dispatcher switches over variants instead of
// poking at an untyped argument bag.
type Event interface {
	Kind() EventKind
}

// NewGameEvent announces a freshly created game round.
type NewGameEvent struct {
	Amount *big.Int // entry price, wei
	GameID uint64
}

func (NewGameEvent) Kind() EventKind { return KindNewGame }

// GamePaymentEvent records a player's payment into a game.
type GamePaymentEvent struct {
	Account string
	GameID  uint64
}

func (GamePaymentEvent) Kind() EventKind { return KindGamePayment }

// ReferralPaymentEvent records a referral reward paid to an inviter.
type ReferralPaymentEvent struct {
	Amount *big.Int // wei
	To     string   // referral id of the receiver
	GameID uint64
	From   string // referral id of the payer
}

func (ReferralPaymentEvent) Kind() EventKind { return KindReferralPayment }

// NewUserRegisteredEvent records a new on-chain registration under an inviter.
type NewUserRegisteredEvent struct {
	UserID    string
	InviterID string
}

func (NewUserRegisteredEvent) Kind() EventKind { return KindNewUserRegistered }

// WinnerPaymentEvent records a prize payout to a winning account.
type WinnerPaymentEvent struct {
	Winner string
	Amount *big.Int // wei
	GameID uint64
}

func (WinnerPaymentEvent) Kind() EventKind { return KindWinnerPayment }

var weiPerEther = new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

// FromWei converts a wei amount to its ether display form, trimming trailing
// zeros the way users expect to read prices.
func FromWei(amount *big.Int) string {
	if amount == nil {
		return "0"
	}

	ether := new(big.Float).Quo(new(big.Float).SetInt(amount), weiPerEther)
	return ether.Text('f', -1)
}

// DisplayGameID converts the contract's 0-based round index to the 1-based
// number shown to users.
func DisplayGameID(gameID uint64) uint64 {
	return gameID + 1
}
