package columns

import (
	"fmt"
	"strings"
)

// 各意味を表す列名のトークン (大文字小文字を区別しない部分一致)
var (
	DefaultReviewTokens   = []string{"후기", "리뷰", "review"}
	DefaultLocationTokens = []string{"위치", "주소", "region", "location", "address"}
	DefaultEntityTokens   = []string{"숙소명", "업체명", "상호", "venue", "hotel", "name"}
)

// Resolution は解決された列名です。Entity と Location は見つからなければ空文字列です。
type Resolution struct {
	Review   string
	Entity   string
	Location string
}

// Overrides は呼び出し側が明示する列名です。空の項目はヒューリスティックで解決します。
type Overrides struct {
	Review   string
	Entity   string
	Location string
}

// SchemaError は必要な列を解決できなかったことを表します。
type SchemaError struct {
	Role      string
	Requested string
	Available []string
}

func (e *SchemaError) Error() string {
	if e.Requested != "" {
		return fmt.Sprintf("指定された%s列 %q が見つかりません。現在の列: %v", e.Role, e.Requested, e.Available)
	}
	return fmt.Sprintf("%s列が見つかりません ('숙소후기' または review を含む列名が必要です)。現在の列: %v", e.Role, e.Available)
}

// Resolver は型情報のない表の列から、意味づけされた列を特定します。
type Resolver struct {
	ReviewTokens   []string
	EntityTokens   []string
	LocationTokens []string
	Overrides      Overrides

	// Exclude が true を返す列は解決の対象外です (出力用の列など)。
	Exclude func(field string) bool
}

// NewResolver は既定トークンを持つ Resolver を作成します。
func NewResolver(overrides Overrides) *Resolver {
	return &Resolver{
		ReviewTokens:   DefaultReviewTokens,
		EntityTokens:   DefaultEntityTokens,
		LocationTokens: DefaultLocationTokens,
		Overrides:      overrides,
	}
}

// Resolve はレビュー列 (必須)、所在地列、エンティティ列の順に解決します。
// 一度割り当てられた列は他の役割に再利用されません。
func (r *Resolver) Resolve(fields []string) (Resolution, error) {
	taken := make(map[string]bool)
	var res Resolution

	review, err := r.resolveOne("レビュー", fields, r.Overrides.Review, r.ReviewTokens, taken)
	if err != nil {
		return Resolution{}, err
	}
	if review == "" {
		return Resolution{}, &SchemaError{Role: "レビュー", Available: fields}
	}
	res.Review = review
	taken[review] = true

	if res.Location, err = r.resolveOne("所在地", fields, r.Overrides.Location, r.LocationTokens, taken); err != nil {
		return Resolution{}, err
	}
	if res.Location != "" {
		taken[res.Location] = true
	}

	if res.Entity, err = r.resolveOne("エンティティ", fields, r.Overrides.Entity, r.EntityTokens, taken); err != nil {
		return Resolution{}, err
	}
	return res, nil
}

// resolveOne は 明示指定 > 完全一致 > 宣言順の部分一致 の優先度で列を選びます。
func (r *Resolver) resolveOne(role string, fields []string, override string, tokens []string, taken map[string]bool) (string, error) {
	if override != "" {
		for _, f := range fields {
			if f == override {
				return f, nil
			}
		}
		return "", &SchemaError{Role: role, Requested: override, Available: fields}
	}

	candidates := make([]string, 0, len(fields))
	for _, f := range fields {
		if taken[f] || (r.Exclude != nil && r.Exclude(f)) {
			continue
		}
		candidates = append(candidates, f)
	}

	for _, f := range candidates {
		for _, tok := range tokens {
			if strings.EqualFold(f, tok) {
				return f, nil
			}
		}
	}
	for _, f := range candidates {
		lower := strings.ToLower(f)
		for _, tok := range tokens {
			if strings.Contains(lower, strings.ToLower(tok)) {
				return f, nil
			}
		}
	}
	return "", nil
}
