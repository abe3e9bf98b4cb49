package main

import (
	"fmt"
	"strings"
)

type table struct {
	data [][]string
}

func newTable(headers ...string) *table {
	return &table{data: [][]string{headers}}
}

func (t *table) add(cells ...string) {
	t.data = append(t.data, cells)
}

func (t *table) print() {
	// get max cell lengths
	lengths := make([]int, len(t.data[0]))
	for _, row := range t.data {
		for i, cell := range row {
			if len(cell) > lengths[i] {
				lengths[i] = len(cell)
			}
		}
	}

	// print rows padded to the column lengths
	for _, row := range t.data {
		var buf strings.Builder
		for i, cell := range row {
			buf.WriteString(cell)
			if i < len(row)-1 {
				buf.WriteString(strings.Repeat(" ", lengths[i]-len(cell)+3))
			}
		}
		fmt.Println(buf.String())
	}
}
