package dataset

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/korean"
)

const sampleCSV = "숙소명,위치,숙소후기\n" +
	"바다펜션,강릉,\"바다뷰가 좋고, 조용했어요\"\n" +
	"산장,평창,겨울에 가기 좋은 곳\n"

func noDetect(raw []byte) (string, error) {
	return "", errors.New("detector disabled")
}

func TestReadEncodingsYieldSameTable(t *testing.T) {
	want, err := NewReader().Read(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("utf-8 read error: %v", err)
	}

	eucKR, err := korean.EUCKR.NewEncoder().String(sampleCSV)
	if err != nil {
		t.Fatalf("encode euc-kr: %v", err)
	}

	tests := []struct {
		name    string
		input   []byte
		wantEnc string
	}{
		{name: "utf-8", input: []byte(sampleCSV), wantEnc: "utf-8"},
		{name: "utf-8 with BOM", input: append([]byte{0xEF, 0xBB, 0xBF}, sampleCSV...), wantEnc: "utf-8"},
		{name: "cp949", input: []byte(eucKR), wantEnc: "euc-kr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Reader{candidates: DefaultEncodings, detect: noDetect}
			got, err := r.Read(bytes.NewReader(tt.input))
			if err != nil {
				t.Fatalf("Read() error: %v", err)
			}
			if !reflect.DeepEqual(got.Fields, want.Fields) {
				t.Errorf("Fields = %v, want %v", got.Fields, want.Fields)
			}
			if !reflect.DeepEqual(got.Records, want.Records) {
				t.Errorf("Records = %v, want %v", got.Records, want.Records)
			}
			if got.SourceEncoding != tt.wantEnc {
				t.Errorf("SourceEncoding = %q, want %q", got.SourceEncoding, tt.wantEnc)
			}
		})
	}
}

func TestReadNormalizesFieldNames(t *testing.T) {
	input := "\ufeff 숙소명 ,\ufeff후기 ,후기\nA,좋아요,별로\n"
	ds, err := NewReader().Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	want := []string{"숙소명", "후기", "후기.1"}
	if !reflect.DeepEqual(ds.Fields, want) {
		t.Errorf("Fields = %v, want %v", ds.Fields, want)
	}
	if got := ds.Records[0].Get("후기.1"); got != "별로" {
		t.Errorf("duplicate column value = %q, want %q", got, "별로")
	}
}

func TestReadEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   \n\n"} {
		ds, err := NewReader().Read(strings.NewReader(input))
		if err != nil {
			t.Fatalf("Read(%q) error: %v", input, err)
		}
		if ds.Len() != 0 || len(ds.Fields) != 0 {
			t.Errorf("Read(%q) = %d fields, %d records, want empty", input, len(ds.Fields), ds.Len())
		}
	}
}

func TestReadFallsBackToDetector(t *testing.T) {
	latin1 := []byte("name,review\nCaf\xe9,tr\xe8s bien\n")
	r := &Reader{
		candidates: DefaultEncodings,
		detect:     func([]byte) (string, error) { return "ISO-8859-1", nil },
	}
	ds, err := r.Read(bytes.NewReader(latin1))
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if got := ds.Records[0].Get("name"); got != "Café" {
		t.Errorf("name = %q, want %q", got, "Café")
	}
	if got := ds.Records[0].Get("review"); got != "très bien" {
		t.Errorf("review = %q, want %q", got, "très bien")
	}
}

func TestReadReturnsEncodingError(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
	}{
		{name: "undecodable bytes", input: []byte{0xFF, 0xFE, 0xFD, 0x80, 0x81, 0x0A}},
		{name: "mismatched column count", input: []byte("a,b\n1,2,3\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Reader{candidates: DefaultEncodings, detect: noDetect}
			_, err := r.Read(bytes.NewReader(tt.input))
			var encErr *EncodingError
			if !errors.As(err, &encErr) {
				t.Fatalf("Read() error = %v, want *EncodingError", err)
			}
			if !reflect.DeepEqual(encErr.Tried, []string{"utf-8", "euc-kr"}) {
				t.Errorf("Tried = %v, want [utf-8 euc-kr]", encErr.Tried)
			}
			if encErr.Preview == "" {
				t.Error("Preview should not be empty")
			}
			if !strings.Contains(encErr.Error(), "CSV UTF-8") {
				t.Errorf("error message should contain remediation guidance: %s", encErr.Error())
			}
		})
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	ds := New([]string{"숙소명", "위치", "주요 키워드"})
	if err := ds.Append([]string{"바다펜션", "강릉", "바다뷰, 조용함"}); err != nil {
		t.Fatal(err)
	}
	if err := ds.Append([]string{"\"큰따옴표\" 산장", "", ""}); err != nil {
		t.Fatal(err)
	}

	encoded, err := EncodeCSV(ds)
	if err != nil {
		t.Fatalf("EncodeCSV() error: %v", err)
	}
	if !bytes.HasPrefix(encoded, utf8BOM) {
		t.Error("output should start with a UTF-8 BOM")
	}

	got, err := NewReader().Read(bytes.NewReader(encoded))
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if !reflect.DeepEqual(got.Fields, ds.Fields) {
		t.Errorf("Fields = %v, want %v", got.Fields, ds.Fields)
	}
	if !reflect.DeepEqual(got.Records, ds.Records) {
		t.Errorf("Records = %v, want %v", got.Records, ds.Records)
	}
}

func TestReadFileXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", "Info"); err != nil {
		t.Fatal(err)
	}
	if err := f.SetCellValue("Info", "A1", "exported by admin"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.NewSheet("리뷰"); err != nil {
		t.Fatal(err)
	}
	// 1行目は空行、2行目がヘッダー
	rows := map[string][]interface{}{
		"A2": {" 숙소명 ", "위치", "후기"},
		"A3": {"바다펜션", "강릉"},
		"A4": {"산장", "평창", "좋아요", "초과 열"},
	}
	for cell, row := range rows {
		if err := f.SetSheetRow("리뷰", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer() error: %v", err)
	}

	ds, err := NewReader().ReadFile("reviews.XLSX", buf.Bytes())
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}

	if want := []string{"숙소명", "위치", "후기"}; !reflect.DeepEqual(ds.Fields, want) {
		t.Errorf("Fields = %v, want %v", ds.Fields, want)
	}
	want := []Record{
		{"숙소명": "바다펜션", "위치": "강릉", "후기": ""},
		{"숙소명": "산장", "위치": "평창", "후기": "좋아요"},
	}
	if !reflect.DeepEqual(ds.Records, want) {
		t.Errorf("Records = %v, want %v", ds.Records, want)
	}
	if ds.SourceEncoding != "xlsx" {
		t.Errorf("SourceEncoding = %q, want xlsx", ds.SourceEncoding)
	}
}

func TestReadXLSXRejectsInvalidWorkbook(t *testing.T) {
	if _, err := NewReader().ReadFile("broken.xlsx", []byte("not a zip")); err == nil {
		t.Error("ReadFile() should fail for an invalid workbook")
	}
}
