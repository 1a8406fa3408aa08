// Package domain contains the card models decoded from the cards API.
package domain

import (
	"bytes"
	"crypto/sha1" //nolint:gosec // non-cryptographic id generation
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// CardsResponse is the body of a card search.
type CardsResponse struct {
	Cards []Card `json:"cards"`
}

// Card is a single printing. Optional fields are nil when the upstream data
// omits them.
type Card struct {
	Name              string  `json:"name"`
	ConvertedManaCost *int    `json:"cmc,omitempty"`
	SetName           string  `json:"setName"`
	CollectorNumber   *string `json:"number,omitempty"`
	Power             *string `json:"power,omitempty"`
	Artist            *string `json:"artist,omitempty"`
}

type rawCard struct {
	Name              *string         `json:"name"`
	ConvertedManaCost json.RawMessage `json:"cmc"`
	SetName           *string         `json:"setName"`
	CollectorNumber   *string         `json:"number"`
	Power             *string         `json:"power"`
	Artist            *string         `json:"artist"`
}

// UnmarshalJSON requires name and setName and leaves c untouched on failure.
func (c *Card) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return errors.New("card is null")
	}

	var raw rawCard
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Name == nil {
		return errors.New("card: required field name is missing")
	}
	if raw.SetName == nil {
		return errors.New("card: required field setName is missing")
	}

	var cmc *int
	if n := bytes.TrimSpace(raw.ConvertedManaCost); len(n) > 0 && !bytes.Equal(n, []byte("null")) {
		v, err := integralNumber(n)
		if err != nil {
			return fmt.Errorf("card %q: cmc: %w", *raw.Name, err)
		}
		cmc = &v
	}

	*c = Card{
		Name:              *raw.Name,
		ConvertedManaCost: cmc,
		SetName:           *raw.SetName,
		CollectorNumber:   raw.CollectorNumber,
		Power:             raw.Power,
		Artist:            raw.Artist,
	}
	return nil
}

// integralNumber accepts the JSON numbers 3 and 3.0 but rejects 3.5 and "3".
// Values must fit in 32 bits however they are written.
func integralNumber(n []byte) (int, error) {
	if c := n[0]; c != '-' && (c < '0' || c > '9') {
		return 0, fmt.Errorf("%s is not a number", string(n))
	}
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return 0, fmt.Errorf("%s is not a number", string(n))
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%s is not an integer", string(n))
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, fmt.Errorf("%s is out of range", string(n))
	}
	return int(f), nil
}

type cardsResponseAlias CardsResponse

// UnmarshalJSON requires the cards key to be present and not null.
func (r *CardsResponse) UnmarshalJSON(data []byte) error {
	var head struct {
		Cards json.RawMessage `json:"cards"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	if len(head.Cards) == 0 || bytes.Equal(bytes.TrimSpace(head.Cards), []byte("null")) {
		return errors.New("cards response: required field cards is missing")
	}

	var out cardsResponseAlias
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	if len(out.Cards) == 0 {
		out.Cards = nil
	}
	*r = CardsResponse(out)
	return nil
}

// MarshalJSON writes a nil card list as [] so the output decodes again.
func (r CardsResponse) MarshalJSON() ([]byte, error) {
	out := cardsResponseAlias(r)
	if out.Cards == nil {
		out.Cards = []Card{}
	}
	return json.Marshal(out)
}

// ID returns a stable identity for the printing.
func (c Card) ID() string {
	number := ""
	if c.CollectorNumber != nil {
		number = *c.CollectorNumber
	}
	sum := sha1.Sum([]byte(c.SetName + "|" + number + "|" + c.Name))
	return hex.EncodeToString(sum[:])
}
