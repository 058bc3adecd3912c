package journal

import (
	"encoding/json"
	"fmt"

	"github.com/congo-pay/bankjournal/internal/account"
)

// Encode serializes an event into its stored type name and JSON payload.
func Encode(ev account.Event) (string, []byte, error) {
	if ev == nil {
		return "", nil, fmt.Errorf("encode event: nil event")
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return "", nil, fmt.Errorf("encode %s: %w", ev.EventType(), err)
	}
	return ev.EventType(), payload, nil
}

// Decode rebuilds an event from its stored type name and JSON payload.
func Decode(eventType string, payload []byte) (account.Event, error) {
	switch eventType {
	case account.TypeAccountCreated:
		var ev account.AccountCreated
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", eventType, err)
		}
		return ev, nil
	case account.TypeBalanceAdjusted:
		var ev account.BalanceAdjusted
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", eventType, err)
		}
		return ev, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, eventType)
	}
}
