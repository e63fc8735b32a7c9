package query

import (
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Операторы сравнения в том виде, в каком их понимает Features.
// Операторы вне этого набора остаются в Predicate.Op как есть.
const (
	OpEq  = ""
	OpIn  = "$in"
	OpGte = "$gte"
	OpGt  = "$gt"
	OpLte = "$lte"
	OpLt  = "$lt"
)

const (
	DefaultPage  = 1
	DefaultLimit = 100
	// DefaultSortField - по умолчанию сначала новые записи
	DefaultSortField = "createdAt"
)

// Служебные ключи строки запроса, которые никогда не попадают в фильтр
var reservedKeys = map[string]struct{}{
	"page":   {},
	"sort":   {},
	"limit":  {},
	"fields": {},
}

var rangeOperators = map[string]string{
	"gte": OpGte,
	"gt":  OpGt,
	"lte": OpLte,
	"lt":  OpLt,
}

// price[gte] -> ("price", "gte")
var bracketKey = regexp.MustCompile(`^([^\[\]]+)\[([^\[\]]*)\]$`)

// Predicate - одно условие фильтра
type Predicate struct {
	Field  string
	Op     string
	Values []string
}

// Value возвращает единственное значение условия
func (p Predicate) Value() string {
	if len(p.Values) == 0 {
		return ""
	}
	return p.Values[len(p.Values)-1]
}

type SortKey struct {
	Field string
	Desc  bool
}

// Spec - разобранное намерение запроса списка: фильтр, сортировка, проекция, страница.
// Создается заново на каждый запрос и после разбора не меняется.
type Spec struct {
	Filters []Predicate
	Sort    []SortKey
	Fields  []string
	Page    int
	Limit   int
}

// Skip - сколько записей пропустить для текущей страницы
func (s *Spec) Skip() int {
	return (s.Page - 1) * s.Limit
}

// Parse строит Spec из параметров строки запроса. Разбор никогда не падает:
// некорректные page/limit заменяются значениями по умолчанию, неизвестные
// операторы передаются дальше без изменений.
//
// multiValue - поля, для которых повторяющийся параметр превращается в IN.
// Для остальных полей побеждает последнее значение.
func Parse(values url.Values, multiValue ...string) *Spec {
	allowMulti := make(map[string]bool, len(multiValue))
	for _, f := range multiValue {
		allowMulti[f] = true
	}

	return &Spec{
		Filters: parseFilters(values, allowMulti),
		Sort:    parseSort(lastValue(values, "sort")),
		Fields:  splitList(lastValue(values, "fields")),
		Page:    parsePositive(lastValue(values, "page"), DefaultPage),
		Limit:   parsePositive(lastValue(values, "limit"), DefaultLimit),
	}
}

func parseFilters(values url.Values, allowMulti map[string]bool) []Predicate {
	keys := make([]string, 0, len(values))
	for key := range values {
		if _, reserved := reservedKeys[key]; reserved {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	filters := make([]Predicate, 0, len(keys))
	for _, key := range keys {
		vals := values[key]
		if len(vals) == 0 {
			continue
		}

		if m := bracketKey.FindStringSubmatch(key); m != nil {
			op, known := rangeOperators[m[2]]
			if !known {
				op = m[2]
			}
			filters = append(filters, Predicate{Field: m[1], Op: op, Values: vals[len(vals)-1:]})
			continue
		}

		if len(vals) > 1 && allowMulti[key] {
			filters = append(filters, Predicate{Field: key, Op: OpIn, Values: vals})
			continue
		}
		filters = append(filters, Predicate{Field: key, Op: OpEq, Values: vals[len(vals)-1:]})
	}
	return filters
}

func parseSort(raw string) []SortKey {
	var keys []SortKey
	for _, item := range splitList(raw) {
		desc := strings.HasPrefix(item, "-")
		field := strings.TrimPrefix(item, "-")
		if field == "" {
			continue
		}
		keys = append(keys, SortKey{Field: field, Desc: desc})
	}
	if len(keys) == 0 {
		return []SortKey{{Field: DefaultSortField, Desc: true}}
	}
	return keys
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parsePositive(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func lastValue(values url.Values, key string) string {
	vals := values[key]
	if len(vals) == 0 {
		return ""
	}
	return vals[len(vals)-1]
}
