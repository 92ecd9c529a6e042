package cper

import "sort"

// LineWidth is the column budget FlagSet.Lines packs names into.
const LineWidth = 80

// FlagSymbol names one bit of a mask.
type FlagSymbol struct {
	Bit  uint
	Name string
}

// FlagSet is a mask together with the names of its known set bits.
type FlagSet struct {
	Mask  uint32   `json:"mask"`
	Names []string `json:"names"`
}

// RenderFlags returns the names of the set bits in mask, in ascending bit
// order. Set bits without a symbol are omitted.
func RenderFlags(mask uint32, symbols []FlagSymbol) FlagSet {
	fs := FlagSet{Mask: mask, Names: []string{}}
	if mask == 0 {
		return fs
	}

	ordered := make([]FlagSymbol, len(symbols))
	copy(ordered, symbols)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Bit < ordered[j].Bit })

	for _, sym := range ordered {
		if sym.Bit >= 32 || sym.Name == "" {
			continue
		}
		if mask&(1<<sym.Bit) != 0 {
			fs.Names = append(fs.Names, sym.Name)
		}
	}
	return fs
}

// Lines groups the names the way a console renderer would print them:
// a line holds the prefix followed by ", "-separated names and is broken
// before it would exceed LineWidth. A single name wider than the budget
// still gets its own line.
func (f FlagSet) Lines(prefixWidth int) [][]string {
	var lines [][]string
	var cur []string
	width := 0

	for _, name := range f.Names {
		if len(cur) > 0 && width+len(name)+2 > LineWidth {
			lines = append(lines, cur)
			cur, width = nil, 0
		}
		if len(cur) == 0 {
			width = prefixWidth + len(name)
		} else {
			width += len(name) + 2
		}
		cur = append(cur, name)
	}
	if len(cur) > 0 {
		lines = append(lines, cur)
	}
	return lines
}

// Symbol tables for the masks the built-in decoders expose.
var (
	ProcessorErrorTypeFlags = []FlagSymbol{
		{0, "cache error"},
		{1, "TLB error"},
		{2, "bus error"},
		{3, "micro-architectural error"},
	}

	ProcessorFlags = []FlagSymbol{
		{0, "restartable"},
		{1, "precise IP"},
		{2, "overflow"},
		{3, "corrected"},
	}

	BlockStatusFlags = []FlagSymbol{
		{0, "uncorrectable error valid"},
		{1, "correctable error valid"},
		{2, "multiple uncorrectable errors"},
		{3, "multiple correctable errors"},
	}
)
