package aggregate

import (
	"sort"
	"strings"

	"github.com/shouni/review-keyword-pipe-go/internal/columns"
	"github.com/shouni/review-keyword-pipe-go/internal/dataset"
)

// 集計表の列名
const (
	FieldEntity   = "숙소명"
	FieldLocation = "위치"
	FieldKeywords = "주요 키워드"
)

// DefaultTopN は1グループあたりに出力するキーワード数です。
const DefaultTopN = 8

// Separator はキーワードの区切り文字列です。
const Separator = ", "

// DefaultStopWords は集計から除外する季節語です (完全一致)。
var DefaultStopWords = []string{"여름", "겨울", "가을", "봄"}

// SummaryRow は1グループの集計結果です。
type SummaryRow struct {
	Entity   string
	Location string
	Keywords []string
}

// Options は集計条件です。
type Options struct {
	TopN      int
	StopWords []string
}

// DefaultOptions は既定の集計条件を返します。
func DefaultOptions() Options {
	return Options{TopN: DefaultTopN, StopWords: DefaultStopWords}
}

type group struct {
	row   SummaryRow
	tally *Tally
}

// Summarize はレコードを (エンティティ, 所在地) で分割し、グループごとの頻出キーワードを求めます。
// グループは最初に現れた順に並びます。エンティティ列が無い場合は名前の無い単一グループになります。
// エンティティ列があり値が空の行は、どのグループにも含めません。
// Done 以外のアノテーションは集計に含めません。
func Summarize(ds *dataset.Dataset, res columns.Resolution, cols dataset.AnnotationColumns, opts Options) []SummaryRow {
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	stop := make(map[string]bool, len(opts.StopWords))
	for _, w := range opts.StopWords {
		stop[w] = true
	}

	type key struct{ entity, location string }
	index := make(map[key]*group)
	var order []*group

	for _, r := range ds.Records {
		k := key{}
		if res.Entity != "" {
			k.entity = strings.TrimSpace(r.Get(res.Entity))
			if k.entity == "" {
				continue
			}
		}
		if res.Location != "" {
			k.location = strings.TrimSpace(r.Get(res.Location))
		}

		g, ok := index[k]
		if !ok {
			g = &group{row: SummaryRow{Entity: k.entity, Location: k.location}, tally: NewTally(stop)}
			index[k] = g
			order = append(order, g)
		}

		ann := cols.Get(r)
		if ann.Status != dataset.StatusDone {
			continue
		}
		g.tally.AddAll(ann.Value)
	}

	rows := make([]SummaryRow, 0, len(order))
	for _, g := range order {
		g.row.Keywords = g.tally.Top(opts.TopN)
		rows = append(rows, g.row)
	}
	return rows
}

// Table は集計結果を出力用の Dataset に変換します。
func Table(rows []SummaryRow) *dataset.Dataset {
	ds := dataset.New([]string{FieldEntity, FieldLocation, FieldKeywords})
	for _, r := range rows {
		// 列数は固定のため Append は失敗しません。
		_ = ds.Append([]string{r.Entity, r.Location, strings.Join(r.Keywords, Separator)})
	}
	return ds
}

// ----------------------------------------------------------------
// Tally
// ----------------------------------------------------------------

// Tally はキーワードの出現回数を初出順とともに記録します。
type Tally struct {
	stop   map[string]bool
	counts map[string]int
	first  map[string]int
	seq    int
}

// NewTally は stop に含まれる語を無視する Tally を作成します。
func NewTally(stop map[string]bool) *Tally {
	return &Tally{stop: stop, counts: map[string]int{}, first: map[string]int{}}
}

// AddAll はカンマ区切りのアノテーション値を分割して数えます。
func (t *Tally) AddAll(value string) {
	for _, tok := range strings.Split(value, ",") {
		t.Add(tok)
	}
}

// Add は1語を数えます。空の語と除外語は無視します。
func (t *Tally) Add(word string) {
	word = strings.TrimSpace(word)
	if word == "" || t.stop[word] {
		return
	}
	if _, ok := t.first[word]; !ok {
		t.first[word] = t.seq
		t.seq++
	}
	t.counts[word]++
}

// Count は語の出現回数を返します。
func (t *Tally) Count(word string) int {
	return t.counts[word]
}

// Top は出現回数の降順、同数は初出順で上位 n 語を返します。
func (t *Tally) Top(n int) []string {
	words := make([]string, 0, len(t.counts))
	for w := range t.counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		ci, cj := t.counts[words[i]], t.counts[words[j]]
		if ci != cj {
			return ci > cj
		}
		return t.first[words[i]] < t.first[words[j]]
	})
	if len(words) > n {
		words = words[:n]
	}
	return words
}
