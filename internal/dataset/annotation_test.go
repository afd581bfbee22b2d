package dataset

import "testing"

func TestInferStatus(t *testing.T) {
	tests := []struct {
		value string
		want  Status
	}{
		{value: "", want: StatusPending},
		{value: "   ", want: StatusPending},
		{value: ErrorPrefix + "rate limit", want: StatusFailed},
		{value: "바다뷰, 조용함", want: StatusDone},
	}
	for _, tt := range tests {
		if got := InferStatus(tt.value); got != tt.want {
			t.Errorf("InferStatus(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestAnnotationColumnsEnsureInfersStatus(t *testing.T) {
	ds := New([]string{"후기", DefaultKeywordField})
	_ = ds.Append([]string{"좋아요", "친절함"})
	_ = ds.Append([]string{"별로", ErrorPrefix + "timeout"})
	_ = ds.Append([]string{"", ""})

	cols := DefaultAnnotationColumns()
	cols.Ensure(ds)

	want := []Status{StatusDone, StatusFailed, StatusPending}
	for i, r := range ds.Records {
		if got := cols.Get(r).Status; got != want[i] {
			t.Errorf("record %d status = %v, want %v", i, got, want[i])
		}
	}
}

func TestAnnotationColumnsSetAndGet(t *testing.T) {
	ds := New([]string{"후기"})
	_ = ds.Append([]string{""})
	cols := DefaultAnnotationColumns()
	cols.Ensure(ds)

	cols.Set(ds.Records[0], Annotation{Status: StatusNotApplicable})
	got := cols.Get(ds.Records[0])
	if got.Status != StatusNotApplicable || got.Value != "" {
		t.Errorf("Get() = %+v, want NotApplicable with empty value", got)
	}
	if !got.Settled() {
		t.Error("NotApplicable annotation should be settled")
	}
	if ds.Records[0][cols.Status] != "not_applicable" {
		t.Errorf("status cell = %q, want %q", ds.Records[0][cols.Status], "not_applicable")
	}
}
