package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// DefaultEncodings は順に試行する候補エンコーディングです。
var DefaultEncodings = []string{"utf-8", "cp949", "euc-kr"}

// previewBytes はエラー時に表示する先頭バイト数です。
const previewBytes = 200

// htmlindex に登録されていない別名
var encodingAliases = map[string]string{
	"cp949": "windows-949",
	"uhc":   "windows-949",
	"utf8":  "utf-8",
}

var errUndecodable = errors.New("不正なバイト列が含まれています")

// Reader はエンコーディング不明のバイト列を Dataset に変換します。
type Reader struct {
	candidates []string
	detect     func(raw []byte) (string, error)
}

// ReaderOption は Reader の設定を変更します。
type ReaderOption func(*Reader)

// WithEncodings は候補エンコーディングの試行順序を指定します。
func WithEncodings(names ...string) ReaderOption {
	return func(r *Reader) {
		if len(names) > 0 {
			r.candidates = names
		}
	}
}

// NewReader は Reader を作成します。
func NewReader(opts ...ReaderOption) *Reader {
	r := &Reader{
		candidates: DefaultEncodings,
		detect:     detectCharset,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReadFile はファイル名の拡張子で形式を判定し、Excel または CSV として読み込みます。
func (r *Reader) ReadFile(name string, content []byte) (*Dataset, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(content)
	default:
		return r.Read(bytes.NewReader(content))
	}
}

// Read は候補エンコーディングを順に試し、すべて失敗した場合は文字コード推定で1回だけ再試行します。
// 解析に失敗すると *EncodingError を返します。空の入力は0件の Dataset になります。
func (r *Reader) Read(src io.ReadSeeker) (*Dataset, error) {
	var (
		tried   []string
		lastErr error
	)

	for _, name := range r.candidates {
		enc, canonical, err := lookupEncoding(name)
		if err != nil {
			slog.Warn("未知のエンコーディング名を無視します。", slog.String("encoding", name))
			continue
		}
		if contains(tried, canonical) {
			continue
		}
		tried = append(tried, canonical)

		ds, err := parseWith(src, enc, canonical)
		if err == nil {
			return ds, nil
		}
		slog.Debug("エンコーディング候補で解析できませんでした。",
			slog.String("encoding", canonical), slog.String("reason", err.Error()))
		lastErr = err
	}

	raw, err := readFromStart(src)
	if err != nil {
		return nil, &EncodingError{Tried: tried, Err: err}
	}

	if charset, derr := r.detect(raw); derr == nil {
		if enc, canonical, lerr := lookupEncoding(charset); lerr == nil && !contains(tried, canonical) {
			tried = append(tried, canonical)
			slog.Info("文字コード推定の結果で再試行します。", slog.String("encoding", canonical))
			ds, perr := parseWith(src, enc, canonical)
			if perr == nil {
				return ds, nil
			}
			lastErr = perr
		}
	} else {
		slog.Debug("文字コード推定に失敗しました。", slog.String("reason", derr.Error()))
	}

	return nil, &EncodingError{Tried: tried, Preview: permissivePreview(raw), Err: lastErr}
}

// parseWith は先頭に巻き戻してから enc で厳密にデコードし、CSVとして解析します。
func parseWith(src io.ReadSeeker, enc encoding.Encoding, canonical string) (*Dataset, error) {
	raw, err := readFromStart(src)
	if err != nil {
		return nil, err
	}

	var text string
	if canonical == "utf-8" {
		if !utf8.Valid(raw) {
			return nil, errUndecodable
		}
		text = string(raw)
	} else {
		decoded, _, err := transform.Bytes(enc.NewDecoder(), raw)
		if err != nil {
			return nil, fmt.Errorf("デコードに失敗しました: %w", err)
		}
		if bytes.ContainsRune(decoded, utf8.RuneError) {
			return nil, errUndecodable
		}
		text = string(decoded)
	}

	ds, err := parseCSV(text)
	if err != nil {
		return nil, err
	}
	ds.SourceEncoding = canonical
	return ds, nil
}

// parseCSV は先頭行をヘッダーとしてCSVテキストを解析します。
func parseCSV(text string) (*Dataset, error) {
	text = strings.TrimPrefix(text, "\ufeff")
	if strings.TrimSpace(text) == "" {
		return New(nil), nil
	}

	cr := csv.NewReader(strings.NewReader(text))
	cr.LazyQuotes = true
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("ヘッダー行の解析に失敗しました: %w", err)
	}

	ds := New(header)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("CSVの解析に失敗しました: %w", err)
		}
		if err := ds.Append(rec); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

func readFromStart(src io.ReadSeeker) ([]byte, error) {
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("入力の巻き戻しに失敗しました: %w", err)
	}
	return io.ReadAll(src)
}

func lookupEncoding(name string) (encoding.Encoding, string, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := encodingAliases[key]; ok {
		key = alias
	}
	enc, err := htmlindex.Get(key)
	if err != nil {
		return nil, "", err
	}
	canonical, err := htmlindex.Name(enc)
	if err != nil {
		return nil, "", err
	}
	return enc, canonical, nil
}

func detectCharset(raw []byte) (string, error) {
	res, err := chardet.NewTextDetector().DetectBest(raw)
	if err != nil {
		return "", err
	}
	return res.Charset, nil
}

// permissivePreview は先頭バイトを不正バイトを置換しつつ文字列化します。
func permissivePreview(raw []byte) string {
	if len(raw) > previewBytes {
		raw = raw[:previewBytes]
	}
	return strings.ToValidUTF8(string(raw), "?")
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
