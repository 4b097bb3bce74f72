package keyboard

import (
	"testing"

	"github.com/m3rciful/scriptbot/core/telegram/callbacks"
)

func TestInlineDropsEmptyRows(t *testing.T) {
	m := Inline(
		[]Button{Btn("Prev", callbacks.KindPage, "0"), Btn("Next", callbacks.KindPage, "2")},
		nil,
		[]Button{Btn("Upload", callbacks.KindUpload, "")},
	)
	if len(m.InlineKeyboard) != 2 {
		t.Fatalf("rows = %d", len(m.InlineKeyboard))
	}
	next := m.InlineKeyboard[0][1]
	if next.Unique != "page" || next.Data != "2" || next.Text != "Next" {
		t.Fatalf("button = %+v", next)
	}
}

func TestChunk(t *testing.T) {
	rows := Chunk([]int{1, 2, 3, 4, 5}, 2)
	if len(rows) != 3 || len(rows[2]) != 1 {
		t.Fatalf("rows = %v", rows)
	}
	if len(Column(Btn("a", callbacks.KindMenu, ""), Btn("b", callbacks.KindMenu, "")).InlineKeyboard) != 2 {
		t.Fatal("column must have one button per row")
	}
}
