package chain

import (
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaponukz/cobraBot/internal/domain"
)

func words(values ...string) string {
	var b strings.Builder
	b.WriteString("0x")
	for _, v := range values {
		v = strings.TrimPrefix(v, "0x")
		b.WriteString(strings.Repeat("0", 64-len(v)))
		b.WriteString(v)
	}
	return b.String()
}

func TestDecodeEvent_NewGame(t *testing.T) {
	price := new(big.Int).Mul(big.NewInt(2), big.NewInt(1e18))
	data := words(price.Text(16), "5")

	event, err := decodeEvent(domain.KindNewGame, rawLog{Data: data})
	require.NoError(t, err)

	newGame, ok := event.(domain.NewGameEvent)
	require.True(t, ok)
	assert.Zero(t, newGame.Amount.Cmp(price))
	assert.Equal(t, uint64(5), newGame.GameID)
}

func TestDecodeEvent_GamePayment(t *testing.T) {
	data := words("ab12cd34ef567890ab12cd34ef567890ab12cd34", "2")

	event, err := decodeEvent(domain.KindGamePayment, rawLog{Data: data})
	require.NoError(t, err)

	payment, ok := event.(domain.GamePaymentEvent)
	require.True(t, ok)
	assert.Equal(t, "0xab12cd34ef567890ab12cd34ef567890ab12cd34", payment.Account)
	assert.Equal(t, uint64(2), payment.GameID)
}

func TestDecodeEvent_ReferralPayment(t *testing.T) {
	data := words("de0b6b3a7640000", "7", "3", "c")

	event, err := decodeEvent(domain.KindReferralPayment, rawLog{Data: data})
	require.NoError(t, err)

	referral, ok := event.(domain.ReferralPaymentEvent)
	require.True(t, ok)
	assert.Equal(t, "1000000000000000000", referral.Amount.String())
	assert.Equal(t, "7", referral.To)
	assert.Equal(t, uint64(3), referral.GameID)
	assert.Equal(t, "12", referral.From)
}

func TestDecodeEvent_NewUserRegistered(t *testing.T) {
	data := words("37", "7")

	event, err := decodeEvent(domain.KindNewUserRegistered, rawLog{Data: data})
	require.NoError(t, err)

	registered, ok := event.(domain.NewUserRegisteredEvent)
	require.True(t, ok)
	assert.Equal(t, "55", registered.UserID)
	assert.Equal(t, "7", registered.InviterID)
}

func TestDecodeEvent_WinnerPayment(t *testing.T) {
	data := words("ab12cd34ef567890ab12cd34ef567890ab12cd34", "de0b6b3a7640000", "4")

	event, err := decodeEvent(domain.KindWinnerPayment, rawLog{Data: data})
	require.NoError(t, err)

	winner, ok := event.(domain.WinnerPaymentEvent)
	require.True(t, ok)
	assert.Equal(t, "0xab12cd34ef567890ab12cd34ef567890ab12cd34", winner.Winner)
	assert.Equal(t, uint64(4), winner.GameID)
}

func TestDecodeEvent_Malformed(t *testing.T) {
	_, err := decodeEvent(domain.KindNewGame, rawLog{Data: "0x01"})
	assert.Error(t, err)

	_, err = decodeEvent(domain.KindNewGame, rawLog{Data: words("1")})
	assert.Error(t, err)

	_, err = decodeEvent(domain.EventKind("Unknown"), rawLog{Data: words("1")})
	assert.Error(t, err)
}

func TestWordToAddress_RejectsDirtyPadding(t *testing.T) {
	dirty := "ff" + strings.Repeat("00", 10) + strings.Repeat("ab", 20)

	_, err := wordToAddress(dirty)
	assert.Error(t, err)
}

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t, "0xab12cd", NormalizeAddress("0xAB12CD"))
	assert.Equal(t, "0xab12cd", NormalizeAddress("AB12CD"))
	assert.Equal(t, "", NormalizeAddress("  "))
}
