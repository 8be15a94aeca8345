package grid

import (
	"encoding/json"
	"fmt"
	"strings"
)

// =============================================================================
// CLIPBOARD - Dense 2-D block of status codes
// =============================================================================

// Clip is a copied rectangular block. Every row has the same width.
type Clip struct {
	data [][]Code
}

// NewClip validates and copies a block. Rows must be non-empty and of
// equal length.
func NewClip(rows [][]Code) (Clip, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return Clip{}, fmt.Errorf("%w: empty block", ErrInvalidClipboard)
	}
	width := len(rows[0])
	data := make([][]Code, len(rows))
	for i, row := range rows {
		if len(row) != width {
			return Clip{}, fmt.Errorf("%w: row %d has %d cells, want %d", ErrInvalidClipboard, i, len(row), width)
		}
		data[i] = append([]Code(nil), row...)
	}
	return Clip{data: data}, nil
}

func (c Clip) Rows() int { return len(c.data) }

func (c Clip) Cols() int {
	if len(c.data) == 0 {
		return 0
	}
	return len(c.data[0])
}

// IsEmpty reports whether nothing has been copied.
func (c Clip) IsEmpty() bool { return c.Rows() == 0 }

// At returns the code at (row, col).
func (c Clip) At(row, col int) Code { return c.data[row][col] }

// Data returns a copy of the block.
func (c Clip) Data() [][]Code {
	out := make([][]Code, len(c.data))
	for i, row := range c.data {
		out[i] = append([]Code(nil), row...)
	}
	return out
}

// StatusReader is anything that resolves the current status of a cell.
type StatusReader interface {
	Status(emp EmployeeID, date string) Code
}

// Copy serializes the most recent region into a clip. Only one region is
// ever copied: with several disjoint regions, the last one wins.
// Cells outside the slot window read as "".
func Copy(regions []Region, order Order, slots *SlotIndex, src StatusReader) (Clip, error) {
	if len(regions) == 0 {
		return Clip{}, ErrNoSelection
	}
	r, ok := regions[len(regions)-1].Bounds(order)
	if !ok {
		return Clip{}, ErrNoSelection
	}

	data := make([][]Code, r.Rows())
	for i := range data {
		emp, _ := order.At(r.Top + i)
		row := make([]Code, r.Cols())
		for j := range row {
			if date := slots.DateAt(r.Left + j); date != "" {
				row[j] = src.Status(emp, date)
			}
		}
		data[i] = row
	}
	return Clip{data: data}, nil
}

// =============================================================================
// PASTE STRATEGIES
// =============================================================================

type Strategy string

const (
	// StrategyRowBroadcast replicates a single clip row into every
	// destination row.
	StrategyRowBroadcast Strategy = "row_broadcast"

	// StrategyTile repeats the clip to exactly fill the destination.
	StrategyTile Strategy = "tile"

	// StrategyOverlay writes the clip once at the destination's top-left,
	// clipped to the destination.
	StrategyOverlay Strategy = "overlay"
)

// ChooseStrategy picks the paste strategy, first match wins:
//  1. one clip row and the destination is one column wide or exactly as
//     wide as the clip -> row broadcast
//  2. destination dimensions are multiples of the clip -> tile
//  3. otherwise -> overlay
func ChooseStrategy(clipRows, clipCols, selRows, selCols int) Strategy {
	if clipRows == 1 && (selCols == 1 || selCols == clipCols) {
		return StrategyRowBroadcast
	}
	if selRows%clipRows == 0 && selCols%clipCols == 0 {
		return StrategyTile
	}
	return StrategyOverlay
}

// Write is one planned cell write in absolute (row, slot) coordinates.
type Write struct {
	Row  int
	Slot int
	Code Code
}

// PlanPaste computes the writes for one destination rectangle.
//
// With row broadcast and a one column destination, the destination
// expands rightwards to the clip width: every destination row receives
// the full clip row starting at the destination column.
func PlanPaste(clip Clip, r Rect) (Strategy, []Write) {
	if clip.IsEmpty() {
		return StrategyOverlay, nil
	}
	cr, cc := clip.Rows(), clip.Cols()
	strategy := ChooseStrategy(cr, cc, r.Rows(), r.Cols())

	var writes []Write
	switch strategy {
	case StrategyRowBroadcast:
		writes = make([]Write, 0, r.Rows()*cc)
		for row := r.Top; row <= r.Bottom; row++ {
			for c := 0; c < cc; c++ {
				writes = append(writes, Write{Row: row, Slot: r.Left + c, Code: clip.At(0, c)})
			}
		}

	case StrategyTile:
		writes = make([]Write, 0, r.Size())
		for row := r.Top; row <= r.Bottom; row++ {
			for slot := r.Left; slot <= r.Right; slot++ {
				writes = append(writes, Write{
					Row:  row,
					Slot: slot,
					Code: clip.At((row-r.Top)%cr, (slot-r.Left)%cc),
				})
			}
		}

	default:
		for i := 0; i < cr; i++ {
			for j := 0; j < cc; j++ {
				row, slot := r.Top+i, r.Left+j
				if !r.Contains(row, slot) {
					continue
				}
				writes = append(writes, Write{Row: row, Slot: slot, Code: clip.At(i, j)})
			}
		}
	}
	return strategy, writes
}

// Paste resolves a clip against every region into one updates map, ready
// for a single BatchSetDraftCells call. Regions are processed in order, so
// where regions overlap the later region wins. Writes that fall outside the
// roster or the slot window are dropped.
func Paste(clip Clip, regions []Region, order Order, slots *SlotIndex) (Entries, error) {
	if clip.IsEmpty() {
		return nil, ErrEmptyClipboard
	}
	if len(regions) == 0 {
		return nil, ErrNoSelection
	}

	updates := make(Entries)
	for _, rg := range regions {
		r, ok := rg.Bounds(order)
		if !ok {
			continue
		}
		_, writes := PlanPaste(clip, r)
		for _, w := range writes {
			emp, ok := order.At(w.Row)
			if !ok {
				continue
			}
			date := slots.DateAt(w.Slot)
			if date == "" {
				continue
			}
			updates[MakeKey(emp, date)] = w.Code
		}
	}
	if len(updates) == 0 {
		return nil, ErrNoSelection
	}
	return updates, nil
}

// =============================================================================
// EXTERNAL CLIPBOARD FORMATS
// =============================================================================

// clipJSON is the serialized clipboard payload.
type clipJSON struct {
	Rows int      `json:"rows"`
	Cols int      `json:"cols"`
	Data [][]Code `json:"data"`
}

func (c Clip) MarshalJSON() ([]byte, error) {
	return json.Marshal(clipJSON{Rows: c.Rows(), Cols: c.Cols(), Data: c.data})
}

// UnmarshalJSON accepts the MarshalJSON payload without status checks.
func (c *Clip) UnmarshalJSON(raw []byte) error {
	clip, err := ParseClip(raw, nil)
	if err != nil {
		return err
	}
	*c = clip
	return nil
}

// ParseClip decodes a serialized clip. The declared extent must match the
// data and, when statuses is non-nil, every code must be configured.
func ParseClip(raw []byte, statuses StatusTable) (Clip, error) {
	var p clipJSON
	if err := json.Unmarshal(raw, &p); err != nil {
		return Clip{}, fmt.Errorf("%w: %v", ErrInvalidClipboard, err)
	}
	if p.Rows != len(p.Data) {
		return Clip{}, fmt.Errorf("%w: declared %d rows, got %d", ErrInvalidClipboard, p.Rows, len(p.Data))
	}
	clip, err := NewClip(p.Data)
	if err != nil {
		return Clip{}, err
	}
	if clip.Cols() != p.Cols {
		return Clip{}, fmt.Errorf("%w: declared %d columns, got %d", ErrInvalidClipboard, p.Cols, clip.Cols())
	}
	return clip, validateCodes(clip, statuses)
}

// ParseClipTSV decodes tab-separated text as produced by spreadsheets.
func ParseClipTSV(text string, statuses StatusTable) (Clip, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return Clip{}, fmt.Errorf("%w: empty text", ErrInvalidClipboard)
	}
	lines := strings.Split(text, "\n")
	rows := make([][]Code, len(lines))
	for i, line := range lines {
		fields := strings.Split(line, "\t")
		row := make([]Code, len(fields))
		for j, f := range fields {
			row[j] = Code(strings.TrimSpace(f))
		}
		rows[i] = row
	}
	clip, err := NewClip(rows)
	if err != nil {
		return Clip{}, err
	}
	return clip, validateCodes(clip, statuses)
}

// TSV renders the clip as tab-separated text.
func (c Clip) TSV() string {
	var b strings.Builder
	for i, row := range c.data {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j, code := range row {
			if j > 0 {
				b.WriteByte('\t')
			}
			b.WriteString(string(code))
		}
	}
	return b.String()
}

func validateCodes(clip Clip, statuses StatusTable) error {
	if statuses == nil {
		return nil
	}
	for _, row := range clip.data {
		for _, code := range row {
			if !statuses.Has(code) {
				return fmt.Errorf("%w: %w", ErrInvalidClipboard, &UnknownStatusError{Code: code})
			}
		}
	}
	return nil
}
