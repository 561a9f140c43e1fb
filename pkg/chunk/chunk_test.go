package chunk_test

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/burrow/pkg/chunk"
	"github.com/m-mizutani/burrow/pkg/model"
)

func collect(t *testing.T, text, filename string, size, overlap int) []model.Chunk {
	t.Helper()
	seq, err := chunk.Split(text, filename, size, overlap)
	gt.NoError(t, err)
	return slices.Collect(seq)
}

func TestSplitShortText(t *testing.T) {
	chunks := collect(t, "hello world", "doc.txt", 100, 20)

	gt.A(t, chunks).Length(1)
	gt.Equal(t, chunks[0].Text, "hello world")
	gt.Equal(t, chunks[0].ID, "doc.txt:0")
	gt.Equal(t, chunks[0].Index, 0)
	gt.Equal(t, chunks[0].CharStart, 0)
	gt.Equal(t, chunks[0].CharEnd, 11)
}

func TestSplitEmptyText(t *testing.T) {
	chunks := collect(t, "", "doc.txt", 100, 20)
	gt.A(t, chunks).Length(0)
}

func TestSplitWindows(t *testing.T) {
	// 300 characters, size=100, overlap=20: windows advance by 80.
	text := strings.Repeat("A", 100) + strings.Repeat("B", 100) + strings.Repeat("C", 100)
	chunks := collect(t, text, "abc.txt", 100, 20)

	gt.A(t, chunks).Length(4)

	wantStarts := []int{0, 80, 160, 240}
	wantEnds := []int{100, 180, 260, 300}
	for i, c := range chunks {
		gt.Equal(t, c.Index, i)
		gt.Equal(t, c.CharStart, wantStarts[i])
		gt.Equal(t, c.CharEnd, wantEnds[i])
		gt.Equal(t, c.SourceFilename, "abc.txt")
	}

	// Consecutive chunks overlap by exactly 20 characters.
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		cur := chunks[i]
		gt.Equal(t, prev.CharEnd-cur.CharStart, 20)
		gt.Equal(t, prev.Text[len(prev.Text)-20:], cur.Text[:20])
	}
}

func TestSplitReconstruction(t *testing.T) {
	texts := []string{
		"short",
		strings.Repeat("x", 100),
		strings.Repeat("paragraph of text ", 50),
		"日本語のテキストもルーン単位で分割される。" + strings.Repeat("あいうえお", 40),
	}
	configs := []struct{ size, overlap int }{
		{100, 20},
		{50, 1},
		{10, 9},
		{500, 50},
	}

	for _, text := range texts {
		for _, cfg := range configs {
			chunks := collect(t, text, "", cfg.size, cfg.overlap)

			var sb strings.Builder
			for i, c := range chunks {
				runes := []rune(c.Text)
				if i == 0 {
					sb.WriteString(c.Text)
					continue
				}
				overlap := chunks[i-1].CharEnd - c.CharStart
				sb.WriteString(string(runes[overlap:]))
			}
			gt.Equal(t, sb.String(), text)
		}
	}
}

func TestSplitExactWindowSize(t *testing.T) {
	chunks := collect(t, strings.Repeat("z", 100), "z.txt", 100, 20)
	gt.A(t, chunks).Length(1)
	gt.Equal(t, chunks[0].CharEnd, 100)
}

func TestSplitInvalidConfig(t *testing.T) {
	cases := []struct {
		name          string
		size, overlap int
	}{
		{"overlap equals size", 100, 100},
		{"overlap exceeds size", 100, 150},
		{"zero overlap", 100, 0},
		{"negative overlap", 100, -1},
		{"zero size", 0, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := chunk.Split("some text", "doc.txt", tc.size, tc.overlap)
			gt.Error(t, err)
			gt.True(t, errors.Is(err, model.ErrInvalidConfig))
		})
	}
}

func TestSplitRestartable(t *testing.T) {
	text := strings.Repeat("w", 250)

	seq, err := chunk.Split(text, "", 100, 20)
	gt.NoError(t, err)

	first := slices.Collect(seq)
	second := slices.Collect(seq)

	gt.Equal(t, len(first), len(second))
	for i := range first {
		gt.Equal(t, first[i].ID, second[i].ID)
		gt.Equal(t, first[i].Text, second[i].Text)
	}
}

func TestSplitRawTextGetsFreshLabel(t *testing.T) {
	seqA, err := chunk.Split("raw upload one", "", 100, 20)
	gt.NoError(t, err)
	seqB, err := chunk.Split("raw upload two", "", 100, 20)
	gt.NoError(t, err)

	a := slices.Collect(seqA)
	b := slices.Collect(seqB)
	gt.A(t, a).Length(1)
	gt.A(t, b).Length(1)
	gt.NotEqual(t, a[0].ID, b[0].ID)
}

func TestSplitEarlyStop(t *testing.T) {
	seq, err := chunk.Split(strings.Repeat("q", 500), "", 100, 20)
	gt.NoError(t, err)

	count := 0
	for range seq {
		count++
		if count == 2 {
			break
		}
	}
	gt.Equal(t, count, 2)
}
