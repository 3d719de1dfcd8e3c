package review

import (
	"fmt"

	"github.com/example/patterneng/pkg/models"
)

// Card is the visible state of a flashcard.
type Card struct {
	Front        string `json:"front"` // korean
	Back         string `json:"back"`  // english
	Flipped      bool   `json:"flipped"`
	Index        int    `json:"index"`
	Total        int    `json:"total"`
	Progress     string `json:"progress"`
	HasPrev      bool   `json:"hasPrev"`
	HasNext      bool   `json:"hasNext"`
	PatternTitle string `json:"patternTitle"`
	PatternColor string `json:"patternColor"`
	Day          int    `json:"day"`
}

// Deck walks a fixed list of review items.
type Deck struct {
	items   []models.ReviewItem
	index   int
	flipped bool
}

func NewDeck(items []models.ReviewItem, start int) (*Deck, error) {
	if len(items) == 0 {
		return nil, ErrEmptyDeck
	}
	snapshot := make([]models.ReviewItem, len(items))
	copy(snapshot, items)

	d := &Deck{items: snapshot}
	d.seek(start)
	return d, nil
}

func (d *Deck) seek(i int) {
	if i < 0 {
		i = 0
	}
	if i > len(d.items)-1 {
		i = len(d.items) - 1
	}
	d.index = i
	d.flipped = false
}

func (d *Deck) Current() Card {
	item := d.items[d.index]
	return Card{
		Front:        item.Korean,
		Back:         item.English,
		Flipped:      d.flipped,
		Index:        d.index,
		Total:        len(d.items),
		Progress:     fmt.Sprintf("%d / %d", d.index+1, len(d.items)),
		HasPrev:      d.index > 0,
		HasNext:      d.index < len(d.items)-1,
		PatternTitle: item.PatternTitle,
		PatternColor: item.PatternColor,
		Day:          item.Day,
	}
}

// Next advances one card; it stays on the last card.
func (d *Deck) Next() Card {
	if d.index < len(d.items)-1 {
		d.seek(d.index + 1)
	}
	return d.Current()
}

// Prev goes back one card; it stays on the first card.
func (d *Deck) Prev() Card {
	if d.index > 0 {
		d.seek(d.index - 1)
	}
	return d.Current()
}

func (d *Deck) Flip() Card {
	d.flipped = !d.flipped
	return d.Current()
}

// Apply runs a named move: "next", "prev", "flip", or "" for the current card.
func (d *Deck) Apply(action string) (Card, error) {
	switch action {
	case "":
		return d.Current(), nil
	case "next":
		return d.Next(), nil
	case "prev":
		return d.Prev(), nil
	case "flip":
		return d.Flip(), nil
	}
	return Card{}, fmt.Errorf("%w: %q", ErrInvalidAction, action)
}
