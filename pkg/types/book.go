package types

import (
	"math"
	"time"
)

// PriceLevel is a single resting level of a venue-side order book.
type PriceLevel struct {
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

// OrderBook is a raw L2 snapshot as an exchange adapter returns it.
// Levels keep the venue's ordering: bids by price descending, asks ascending.
type OrderBook struct {
	Symbol     string       `json:"symbol"`
	Bids       []PriceLevel `json:"bids"`
	Asks       []PriceLevel `json:"asks"`
	UpdateTime time.Time    `json:"update_time"`
}

// BookEntry is one level of a directed conversion book: one unit of the
// source currency converts at Rate units of the destination, with Volume of
// the source currency available at that rate.
type BookEntry struct {
	Rate   float64 `json:"rate"`
	Volume float64 `json:"volume"`
}

// Book is a directed conversion book, best rate first. Volume may be +Inf
// when the venue only reported top-of-book prices without depth.
type Book []BookEntry

// Fill is the outcome of walking a Book for a requested input volume.
type Fill struct {
	AvgRate float64 // volume-weighted average conversion rate
	Limit   float64 // rate of the worst level touched
	Output  float64 // amount received in the destination currency
}

// SellSide builds the BASE -> QUOTE conversion book from the bid side of an
// order book: selling one BASE at a bid (p, q) yields p QUOTE, q available.
// Levels with non-positive prices are dropped.
func SellSide(bids []PriceLevel) Book {
	book := make(Book, 0, len(bids))
	for _, lvl := range bids {
		if lvl.Price <= 0 {
			continue
		}
		book = append(book, BookEntry{Rate: lvl.Price, Volume: lvl.Quantity})
	}
	return book
}

// BuySide builds the QUOTE -> BASE conversion book from the ask side: buying
// BASE at an ask (p, q) converts p*q QUOTE at a rate of 1/p BASE per QUOTE.
// Levels with non-positive prices are dropped.
func BuySide(asks []PriceLevel) Book {
	book := make(Book, 0, len(asks))
	for _, lvl := range asks {
		if lvl.Price <= 0 {
			continue
		}
		book = append(book, BookEntry{Rate: 1 / lvl.Price, Volume: lvl.Price * lvl.Quantity})
	}
	return book
}

// Fill walks the book best level first, taking min(remaining, level volume)
// at each level until the requested volume is consumed. It returns ok=false
// for an empty book, a non-positive volume, or when the book is too thin to
// cover the request.
func (b Book) Fill(volume float64) (Fill, bool) {
	if volume <= 0 || len(b) == 0 {
		return Fill{}, false
	}
	var total, limit float64
	remaining := volume
	for _, lvl := range b {
		take := math.Min(remaining, lvl.Volume)
		total += take * lvl.Rate
		limit = lvl.Rate
		remaining -= take
		if remaining <= 0 {
			avg := total / volume
			return Fill{AvgRate: avg, Limit: limit, Output: volume * avg}, true
		}
	}
	return Fill{}, false
}
