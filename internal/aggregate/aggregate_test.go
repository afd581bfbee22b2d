package aggregate

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/shouni/review-keyword-pipe-go/internal/columns"
	"github.com/shouni/review-keyword-pipe-go/internal/dataset"
)

var cols = dataset.DefaultAnnotationColumns()

func annotated(t *testing.T, rows ...[]string) *dataset.Dataset {
	t.Helper()
	ds := dataset.New([]string{"숙소명", "위치", "후기", cols.Keyword, cols.Status})
	for _, r := range rows {
		if err := ds.Append(r); err != nil {
			t.Fatal(err)
		}
	}
	return ds
}

func TestSummarizeExcludesStopWords(t *testing.T) {
	ds := annotated(t,
		[]string{"바다펜션", "강릉", "r1", "여름, 바다뷰, 겨울, 조용함", "done"},
		[]string{"바다펜션", "강릉", "r2", "여름, 바다뷰, 겨울, 조용함", "done"},
		[]string{"바다펜션", "강릉", "r3", "여름, 바다뷰, 겨울, 조용함", "done"},
	)
	res := columns.Resolution{Review: "후기", Entity: "숙소명", Location: "위치"}

	rows := Summarize(ds, res, cols, DefaultOptions())
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	got := strings.Join(rows[0].Keywords, Separator)
	if got != "바다뷰, 조용함" {
		t.Errorf("keywords = %q, want %q", got, "바다뷰, 조용함")
	}
	for _, w := range DefaultStopWords {
		if strings.Contains(got, w) {
			t.Errorf("keywords %q contain stop word %q", got, w)
		}
	}
}

func TestSummarizeTieBreakByFirstSeen(t *testing.T) {
	ds := annotated(t,
		[]string{"H", "", "", "C, A", "done"},
		[]string{"H", "", "", "A, B, C", "done"},
		[]string{"H", "", "", "B, A", "done"},
		[]string{"H", "", "", "A, B", "done"},
		[]string{"H", "", "", "B, A", "done"},
		[]string{"H", "", "", "B, C", "done"},
	)
	res := columns.Resolution{Review: "후기", Entity: "숙소명"}

	rows := Summarize(ds, res, cols, DefaultOptions())
	// A:5, B:5, C:3 で A は B より先に現れる
	want := []string{"A", "B", "C"}
	if !reflect.DeepEqual(rows[0].Keywords, want) {
		t.Errorf("keywords = %v, want %v", rows[0].Keywords, want)
	}
}

func TestSummarizeGroupsAndStatuses(t *testing.T) {
	ds := annotated(t,
		[]string{"B호텔", "서울", "r", "수영장", "done"},
		[]string{"A펜션", "강릉", "r", "AI 오류: timeout", "failed"},
		[]string{"B호텔", "부산", "r", "오션뷰", "done"},
		[]string{"B호텔", "서울", "r", "수영장, 조식", "done"},
		[]string{"A펜션", "강릉", "", "", "not_applicable"},
	)
	res := columns.Resolution{Review: "후기", Entity: "숙소명", Location: "위치"}

	got := Summarize(ds, res, cols, DefaultOptions())
	want := []SummaryRow{
		{Entity: "B호텔", Location: "서울", Keywords: []string{"수영장", "조식"}},
		{Entity: "A펜션", Location: "강릉", Keywords: []string{}},
		{Entity: "B호텔", Location: "부산", Keywords: []string{"오션뷰"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Summarize() = %+v, want %+v", got, want)
	}
}

func TestSummarizeSkipsBlankEntity(t *testing.T) {
	ds := annotated(t,
		[]string{"바다펜션", "강릉", "r", "바다뷰", "done"},
		[]string{"  ", "강릉", "r", "조식", "done"},
		[]string{"", "", "r", "수영장", "done"},
		[]string{"바다펜션", "강릉", "r", "조용함", "done"},
	)
	res := columns.Resolution{Review: "후기", Entity: "숙소명", Location: "위치"}

	got := Summarize(ds, res, cols, DefaultOptions())
	want := []SummaryRow{
		{Entity: "바다펜션", Location: "강릉", Keywords: []string{"바다뷰", "조용함"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Summarize() = %+v, want %+v", got, want)
	}
}

func TestSummarizeImplicitGroup(t *testing.T) {
	ds := dataset.New([]string{"후기", cols.Keyword})
	for _, kw := range []string{"a, b", "b", ""} {
		if err := ds.Append([]string{"r", kw}); err != nil {
			t.Fatal(err)
		}
	}
	rows := Summarize(ds, columns.Resolution{Review: "후기"}, cols, DefaultOptions())
	if len(rows) != 1 || rows[0].Entity != "" {
		t.Fatalf("rows = %+v, want a single unnamed group", rows)
	}
	if !reflect.DeepEqual(rows[0].Keywords, []string{"b", "a"}) {
		t.Errorf("keywords = %v", rows[0].Keywords)
	}
}

func TestTopLimit(t *testing.T) {
	tally := NewTally(nil)
	tally.AddAll("k1, k2, k3, k4, k5, k6, k7, k8, k9, k10")
	tally.Add("k10")
	got := tally.Top(DefaultTopN)
	if len(got) != DefaultTopN || got[0] != "k10" {
		t.Errorf("Top() = %v", got)
	}
}

func TestTableRoundTrip(t *testing.T) {
	rows := []SummaryRow{
		{Entity: "바다펜션", Location: "강릉", Keywords: []string{"바다뷰", "조용함"}},
		{Entity: "산장 \"별빛\"", Location: "", Keywords: nil},
	}
	table := Table(rows)

	var buf bytes.Buffer
	if err := dataset.WriteCSV(&buf, table); err != nil {
		t.Fatalf("WriteCSV() error: %v", err)
	}
	got, err := dataset.NewReader().Read(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}

	if !reflect.DeepEqual(got.Fields, []string{FieldEntity, FieldLocation, FieldKeywords}) {
		t.Errorf("Fields = %v", got.Fields)
	}
	if !reflect.DeepEqual(got.Records, table.Records) {
		t.Errorf("Records = %v, want %v", got.Records, table.Records)
	}
}
