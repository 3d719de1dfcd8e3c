package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

const sampleCSV = `day,day_title,pattern_id,pattern_title,color,english,korean,vocab
1,Future plans,1,I'm going to ~,#6366f1,I'm going to study.,나 공부할 거야.,study=공부하다
1,Future plans,1,I'm going to ~,#6366f1,I'm going to sleep.,나 잘 거야.,sleep=자다;study=공부하다
,,,,,,,
1,Future plans,2,Can I ~?,#10b981,Can I sit here?,여기 앉아도 돼?,
2,Wants,3,I want to ~,#f59e0b,I want to go home.,나 집에 가고 싶어.,
x,bad row,1,,,,,
`

func TestImportCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	cfg := DefaultImportConfig()
	cfg.FilePath = path
	data, result, err := Import(cfg)
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	if result.Examples != 4 {
		t.Fatalf("examples = %d, want 4", result.Examples)
	}
	if result.DaysCreated != 2 || result.PatternsCreated != 3 {
		t.Fatalf("days/patterns = %d/%d, want 2/3", result.DaysCreated, result.PatternsCreated)
	}
	if result.Skipped != 1 {
		t.Fatalf("skipped = %d, want 1", result.Skipped)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("errors = %v, want exactly one", result.Errors)
	}

	p := data.Days[0].Patterns[0]
	if len(p.Examples) != 2 {
		t.Fatalf("pattern 1 examples = %d, want 2", len(p.Examples))
	}
	if len(p.Vocab) != 2 {
		t.Fatalf("pattern 1 vocab = %+v, want study and sleep", p.Vocab)
	}
}

func TestLoadRejectsBadRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected Load to fail on a bad row")
	}
}

func TestImportExcel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.xlsx")

	f := excelize.NewFile()
	rows := [][]interface{}{
		{"day", "day_title", "pattern_id", "pattern_title", "color", "english", "korean"},
		{1, "Future plans", 1, "I'm going to ~", "#6366f1", "I'm going to study.", "나 공부할 거야."},
		{1, "Future plans", 1, "I'm going to ~", "#6366f1", "I'm going to eat.", "나 먹을 거야."},
		{2, "Wants", 3, "I want to ~", "#f59e0b", "I want to go home.", "나 집에 가고 싶어."},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		row := row
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save xlsx: %v", err)
	}
	_ = f.Close()

	c, err := Load(path)
	if err != nil {
		t.Fatalf("load xlsx: %v", err)
	}
	if got := c.TotalExamples(1); got != 2 {
		t.Fatalf("TotalExamples(1) = %d, want 2", got)
	}
	if _, err := c.Pattern(2, 3); err != nil {
		t.Fatalf("pattern 2/3: %v", err)
	}
}

func TestColumnToIndex(t *testing.T) {
	for col, want := range map[string]int{"A": 0, "h": 7, "Z": 25, "AA": 26} {
		if got := columnToIndex(col); got != want {
			t.Fatalf("columnToIndex(%q) = %d, want %d", col, got, want)
		}
	}
}
