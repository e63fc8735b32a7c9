package query

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// RevisionColumn - служебное поле версии, скрытое в проекции по умолчанию
const RevisionColumn = "version"

var ErrAlreadyExecuted = errors.New("query: features already executed")

// FieldError - запрос ссылается на неизвестное поле, неподдерживаемый оператор
// или значение, которое нельзя привести к типу колонки.
type FieldError struct {
	Field  string
	Value  string
	Reason string
}

func (e *FieldError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("Invalid %s: %s. %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("Invalid %s. %s", e.Field, e.Reason)
}

var schemaCache sync.Map

type preload struct {
	name string
	args []interface{}
}

// Features собирает запрос списка из Spec в фиксированном порядке:
// фильтр -> сортировка -> проекция -> пагинация.
// Экземпляр живет в рамках одного запроса и выполняется ровно один раз.
type Features struct {
	db    *gorm.DB
	model interface{}
	spec  *Spec

	filter, sort, project, paginate bool

	maxLimit int
	scopes   []func(*gorm.DB) *gorm.DB
	preloads []preload

	executed bool
}

type Option func(*Features)

// WithMaxLimit ограничивает limit сверху. 0 - без ограничения.
func WithMaxLimit(n int) Option {
	return func(f *Features) { f.maxLimit = n }
}

// WithScope добавляет условие, которое клиент не может переопределить
// (например, скрытые туры или вложенный маршрут /tours/:id/reviews).
func WithScope(scope func(*gorm.DB) *gorm.DB) Option {
	return func(f *Features) { f.scopes = append(f.scopes, scope) }
}

// WithPreload явно подключает связанную сущность. Без этой опции связи не загружаются.
func WithPreload(name string, args ...interface{}) Option {
	return func(f *Features) { f.preloads = append(f.preloads, preload{name: name, args: args}) }
}

func New(db *gorm.DB, model interface{}, spec *Spec, opts ...Option) *Features {
	f := &Features{db: db, model: model, spec: spec}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Features) Filter() *Features      { f.filter = true; return f }
func (f *Features) Sort() *Features        { f.sort = true; return f }
func (f *Features) LimitFields() *Features { f.project = true; return f }
func (f *Features) Paginate() *Features    { f.paginate = true; return f }

// All включает все четыре стадии
func (f *Features) All() *Features {
	return f.Filter().Sort().LimitFields().Paginate()
}

// Spec возвращает спецификацию с учетом ограничения limit
func (f *Features) Spec() Spec {
	s := *f.spec
	if f.maxLimit > 0 && s.Limit > f.maxLimit {
		s.Limit = f.maxLimit
	}
	return s
}

// Query возвращает собранный, но еще не выполненный запрос
func (f *Features) Query() (*gorm.DB, error) {
	fields, sch, err := fieldsOf(f.db, f.model)
	if err != nil {
		return nil, err
	}
	spec := f.Spec()

	tx := f.base()

	if f.filter {
		if tx, err = applyFilters(tx, fields, spec.Filters); err != nil {
			return nil, err
		}
	}

	if f.sort {
		for _, key := range spec.Sort {
			field, ok := fields[key.Field]
			if !ok {
				return nil, &FieldError{Field: key.Field, Reason: "Unknown sort field."}
			}
			tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: field.DBName}, Desc: key.Desc})
		}
		// детерминированный порядок при равных ключах
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}})
	}

	if f.project {
		if tx, err = project(tx, fields, sch, spec.Fields); err != nil {
			return nil, err
		}
	}

	if f.paginate {
		tx = tx.Offset(spec.Skip()).Limit(spec.Limit)
	}

	for _, p := range f.preloads {
		tx = tx.Preload(p.name, p.args...)
	}

	return tx, nil
}

// project строит проекцию: fields=name,price оставляет перечисленные поля (и id),
// fields=-price убирает перечисленные. Смешивать обе формы нельзя.
func project(tx *gorm.DB, fields map[string]*schema.Field, sch *schema.Schema, names []string) (*gorm.DB, error) {
	var include, exclude []string
	for _, name := range names {
		excluded := strings.HasPrefix(name, "-")
		name = strings.TrimPrefix(name, "-")
		field, ok := fields[name]
		if !ok {
			return nil, &FieldError{Field: name, Reason: "Unknown field."}
		}
		if excluded {
			exclude = append(exclude, field.DBName)
		} else {
			include = append(include, field.DBName)
		}
	}
	if len(include) > 0 && len(exclude) > 0 {
		return nil, &FieldError{Field: "fields", Reason: "Cannot mix included and excluded fields."}
	}

	if len(include) > 0 {
		columns := []string{"id"}
		for _, c := range include {
			if c != "id" {
				columns = append(columns, c)
			}
		}
		return tx.Select(columns), nil
	}

	// id нужен всегда
	omit := make([]string, 0, len(exclude)+1)
	for _, c := range exclude {
		if c != "id" {
			omit = append(omit, c)
		}
	}
	if sch.LookUpField(RevisionColumn) != nil {
		omit = append(omit, RevisionColumn)
	}
	if len(omit) == 0 {
		return tx, nil
	}
	return tx.Omit(omit...), nil
}

// Find выполняет запрос. Повторный вызов возвращает ErrAlreadyExecuted.
func (f *Features) Find(dest interface{}) error {
	if f.executed {
		return ErrAlreadyExecuted
	}
	f.executed = true

	tx, err := f.Query()
	if err != nil {
		return err
	}
	return tx.Find(dest).Error
}

// Count считает записи, прошедшие фильтр (без сортировки и пагинации)
func (f *Features) Count() (int64, error) {
	fields, _, err := fieldsOf(f.db, f.model)
	if err != nil {
		return 0, err
	}
	tx := f.base()
	if f.filter {
		if tx, err = applyFilters(tx, fields, f.spec.Filters); err != nil {
			return 0, err
		}
	}
	var total int64
	err = tx.Count(&total).Error
	return total, err
}

func (f *Features) base() *gorm.DB {
	return f.db.Model(f.model).Scopes(f.scopes...)
}

func applyFilters(tx *gorm.DB, fields map[string]*schema.Field, filters []Predicate) (*gorm.DB, error) {
	for _, p := range filters {
		field, ok := fields[p.Field]
		if !ok {
			return nil, &FieldError{Field: p.Field, Value: p.Value(), Reason: "Unknown field."}
		}
		column := clause.Column{Name: field.DBName}

		if p.Op == OpIn {
			values := make([]interface{}, 0, len(p.Values))
			for _, raw := range p.Values {
				v, err := convert(field, p.Field, raw)
				if err != nil {
					return nil, err
				}
				values = append(values, v)
			}
			tx = tx.Where(clause.IN{Column: column, Values: values})
			continue
		}

		value, err := convert(field, p.Field, p.Value())
		if err != nil {
			return nil, err
		}

		switch p.Op {
		case OpEq:
			tx = tx.Where(clause.Eq{Column: column, Value: value})
		case OpGte:
			tx = tx.Where(clause.Gte{Column: column, Value: value})
		case OpGt:
			tx = tx.Where(clause.Gt{Column: column, Value: value})
		case OpLte:
			tx = tx.Where(clause.Lte{Column: column, Value: value})
		case OpLt:
			tx = tx.Where(clause.Lt{Column: column, Value: value})
		default:
			return nil, &FieldError{Field: p.Field, Value: p.Value(), Reason: fmt.Sprintf("Unsupported operator %q.", p.Op)}
		}
	}
	return tx, nil
}

// convert приводит строку из запроса к типу колонки
func convert(field *schema.Field, name, raw string) (interface{}, error) {
	var (
		v   interface{}
		err error
	)
	switch field.DataType {
	case schema.Bool:
		v, err = strconv.ParseBool(raw)
	case schema.Int, schema.Uint:
		v, err = strconv.ParseInt(raw, 10, 64)
	case schema.Float:
		v, err = strconv.ParseFloat(raw, 64)
	case schema.Time:
		v, err = parseTime(raw)
	default:
		v = raw
	}
	if err != nil {
		return nil, &FieldError{Field: name, Value: raw, Reason: "Value has the wrong type."}
	}
	return v, nil
}

func parseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

// fieldsOf строит карту допустимых имен полей модели: json-имя, имя колонки и имя поля Go.
// Поля с json:"-" наружу не выставляются и в запросах недоступны.
func fieldsOf(db *gorm.DB, model interface{}) (map[string]*schema.Field, *schema.Schema, error) {
	sch, err := schema.Parse(model, &schemaCache, db.NamingStrategy)
	if err != nil {
		return nil, nil, err
	}

	fields := make(map[string]*schema.Field, len(sch.Fields)*3)
	for _, field := range sch.Fields {
		if field.DBName == "" {
			continue
		}
		jsonName := jsonNameOf(field.Tag)
		if jsonName == "-" {
			continue
		}
		if len(field.BindNames) > 1 {
			if parent, ok := sch.ModelType.FieldByName(field.BindNames[0]); ok {
				if p := jsonNameOf(parent.Tag); p != "" && p != "-" && !parent.Anonymous {
					jsonName = p + "." + jsonName
				}
			}
		}
		if jsonName != "" {
			fields[jsonName] = field
		}
		fields[field.DBName] = field
		fields[field.Name] = field
	}
	return fields, sch, nil
}

func jsonNameOf(tag reflect.StructTag) string {
	return strings.Split(tag.Get("json"), ",")[0]
}
