package news

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/nyaruka/phonenumbers"
)

// NormalizePhone validates a phone number and returns it in E.164 form.
// Numbers without a country code are read in the given default region.
func NormalizePhone(raw, region string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidPhone)
	}
	num, err := phonenumbers.Parse(raw, strings.ToUpper(region))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPhone, err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPhone, raw)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// Subscribe registers or removes a phone number from the newsletter. The
// number is validated first; an invalid number never reaches the network.
func (c *Client) Subscribe(ctx context.Context, phone string, subscribe bool) error {
	normalized, err := NormalizePhone(phone, c.phoneRegion)
	if err != nil {
		return err
	}

	body, err := json.Marshal(struct {
		PhoneNumber string `json:"phone_number"`
		Subscribe   bool   `json:"subscribe"`
	}{normalized, subscribe})
	if err != nil {
		return fmt.Errorf("encoding subscription: %w", err)
	}

	u := c.endpoint("/newsletter/subscribe")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if err := c.do(req, "subscribe", nil); err != nil {
		return err
	}
	log.Debug("newsletter subscription updated", "subscribe", subscribe)
	return nil
}
