package chain

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gaponukz/cobraBot/internal/domain"
)

// Contract describes the deployed contract the bot watches: its address, the
// topic hash of every subscribed event, and the selector of the usersId view
// used to resolve referral ids. Values come from the deployment artifacts, so
// the bot never needs an ABI encoder of its own.
type Contract struct {
	Address         string                      `json:"address"`
	EventTopics     map[domain.EventKind]string `json:"events"`
	UsersIDSelector string                      `json:"users_id_selector"`
}

// LoadContract reads the contract description from a JSON file.
func LoadContract(path string) (*Contract, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read contract file %q: %w", path, err)
	}

	var contract Contract
	if err := json.Unmarshal(data, &contract); err != nil {
		return nil, fmt.Errorf("decode contract file %q: %w", path, err)
	}

	if contract.Address == "" {
		return nil, fmt.Errorf("contract file %q: missing address", path)
	}
	if len(contract.EventTopics) == 0 {
		return nil, fmt.Errorf("contract file %q: no event topics", path)
	}

	contract.Address = NormalizeAddress(contract.Address)

	return &contract, nil
}

// Topic returns the topic hash for kind, or false when the contract does not
// declare it.
func (c *Contract) Topic(kind domain.EventKind) (string, bool) {
	topic, ok := c.EventTopics[kind]
	return topic, ok
}
