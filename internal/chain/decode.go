package chain

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/gaponukz/cobraBot/internal/domain"
)

const wordSize = 32

// decodeEvent maps one raw log entry to its typed event. The contract emits
// every argument unindexed, so the layout is a flat sequence of 32-byte words
// in declaration order.
func decodeEvent(kind domain.EventKind, entry rawLog) (domain.Event, error) {
	words, err := splitWords(entry.Data)
	if err != nil {
		return nil, err
	}

	switch kind {
	case domain.KindNewGame:
		if len(words) < 2 {
			return nil, fmt.Errorf("NewGame: want 2 words, got %d", len(words))
		}
		return domain.NewGameEvent{
			Amount: wordToBig(words[0]),
			GameID: wordToBig(words[1]).Uint64(),
		}, nil

	case domain.KindGamePayment:
		if len(words) < 2 {
			return nil, fmt.Errorf("GamePaymentEvent: want 2 words, got %d", len(words))
		}
		account, err := wordToAddress(words[0])
		if err != nil {
			return nil, err
		}
		return domain.GamePaymentEvent{
			Account: account,
			GameID:  wordToBig(words[1]).Uint64(),
		}, nil

	case domain.KindReferralPayment:
		if len(words) < 4 {
			return nil, fmt.Errorf("ReferalPaymentEvent: want 4 words, got %d", len(words))
		}
		return domain.ReferralPaymentEvent{
			Amount: wordToBig(words[0]),
			To:     wordToBig(words[1]).String(),
			GameID: wordToBig(words[2]).Uint64(),
			From:   wordToBig(words[3]).String(),
		}, nil

	case domain.KindNewUserRegistered:
		if len(words) < 2 {
			return nil, fmt.Errorf("NewUserRegisteredEvent: want 2 words, got %d", len(words))
		}
		return domain.NewUserRegisteredEvent{
			UserID:    wordToBig(words[0]).String(),
			InviterID: wordToBig(words[1]).String(),
		}, nil

	case domain.KindWinnerPayment:
		if len(words) < 3 {
			return nil, fmt.Errorf("WinnerPayment: want 3 words, got %d", len(words))
		}
		winner, err := wordToAddress(words[0])
		if err != nil {
			return nil, err
		}
		return domain.WinnerPaymentEvent{
			Winner: winner,
			Amount: wordToBig(words[1]),
			GameID: wordToBig(words[2]).Uint64(),
		}, nil

	default:
		return nil, fmt.Errorf("no decoder for event kind %q", kind)
	}
}

// splitWords turns 0x-prefixed hex data into 32-byte words.
func splitWords(data string) ([][]byte, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(data, "0x"))
	if err != nil {
		return nil, fmt.Errorf("log data is not hex: %w", err)
	}
	if len(raw)%wordSize != 0 {
		return nil, fmt.Errorf("log data length %d is not word-aligned", len(raw))
	}

	words := make([][]byte, 0, len(raw)/wordSize)
	for offset := 0; offset < len(raw); offset += wordSize {
		words = append(words, raw[offset:offset+wordSize])
	}

	return words, nil
}

func wordToBig(word []byte) *big.Int {
	return new(big.Int).SetBytes(word)
}

// wordToAddress extracts the 20-byte address padded into a word. Accepts
// either a raw word or its hex form.
func wordToAddress(word any) (string, error) {
	var raw []byte
	switch w := word.(type) {
	case []byte:
		raw = w
	case string:
		decoded, err := hex.DecodeString(strings.TrimPrefix(w, "0x"))
		if err != nil {
			return "", fmt.Errorf("address word is not hex: %w", err)
		}
		raw = decoded
	default:
		return "", fmt.Errorf("unsupported address word type %T", word)
	}

	if len(raw) < 20 {
		return "", fmt.Errorf("address word too short: %d bytes", len(raw))
	}

	address := raw[len(raw)-20:]
	for _, b := range raw[:len(raw)-20] {
		if b != 0 {
			return "", fmt.Errorf("address word has non-zero padding")
		}
	}

	return NormalizeAddress(hex.EncodeToString(address)), nil
}

func isZeroAddress(address string) bool {
	trimmed := strings.TrimPrefix(address, "0x")
	for _, c := range trimmed {
		if c != '0' {
			return false
		}
	}
	return true
}
