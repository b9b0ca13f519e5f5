package core

import (
	"fmt"
	"time"
)

type MonthCode string

const (
	January         MonthCode = "01"
	February        MonthCode = "02"
	March           MonthCode = "03"
	April           MonthCode = "04"
	May             MonthCode = "05"
	June            MonthCode = "06"
	July            MonthCode = "07"
	August          MonthCode = "08"
	September       MonthCode = "09"
	October         MonthCode = "10"
	November        MonthCode = "11"
	December        MonthCode = "12"
	Tredicesima     MonthCode = "13"
	Quattordicesima MonthCode = "14"
)

// MonthDescriptor is one entry of the static month catalogue.
type MonthDescriptor struct {
	Code  MonthCode `json:"code"`
	Short string    `json:"shortLabel"`
	Full  string    `json:"fullLabel"`
	Extra bool      `json:"isExtra"`
}

// Months is the catalogue in display order: the 14th payment sits after June,
// the 13th after December.
var Months = [SlotsPerYear]MonthDescriptor{
	{Code: January, Short: "Gen", Full: "Gennaio"},
	{Code: February, Short: "Feb", Full: "Febbraio"},
	{Code: March, Short: "Mar", Full: "Marzo"},
	{Code: April, Short: "Apr", Full: "Aprile"},
	{Code: May, Short: "Mag", Full: "Maggio"},
	{Code: June, Short: "Giu", Full: "Giugno"},
	{Code: Quattordicesima, Short: "14ª", Full: "Quattordicesima", Extra: true},
	{Code: July, Short: "Lug", Full: "Luglio"},
	{Code: August, Short: "Ago", Full: "Agosto"},
	{Code: September, Short: "Set", Full: "Settembre"},
	{Code: October, Short: "Ott", Full: "Ottobre"},
	{Code: November, Short: "Nov", Full: "Novembre"},
	{Code: December, Short: "Dic", Full: "Dicembre"},
	{Code: Tredicesima, Short: "13ª", Full: "Tredicesima", Extra: true},
}

var monthIndex = func() map[MonthCode]int {
	idx := make(map[MonthCode]int, len(Months))
	for i, m := range Months {
		idx[m.Code] = i
	}
	return idx
}()

func (c MonthCode) Valid() bool {
	_, ok := monthIndex[c]
	return ok
}

// Index returns the display position of c, or -1 when unknown.
func (c MonthCode) Index() int {
	if i, ok := monthIndex[c]; ok {
		return i
	}
	return -1
}

// Descriptor returns the catalogue entry for c.
func (c MonthCode) Descriptor() (MonthDescriptor, bool) {
	i, ok := monthIndex[c]
	if !ok {
		return MonthDescriptor{}, false
	}
	return Months[i], true
}

// MonthCodeOf maps a calendar month to its two-digit code.
func MonthCodeOf(m time.Month) MonthCode {
	return MonthCode(fmt.Sprintf("%02d", int(m)))
}
