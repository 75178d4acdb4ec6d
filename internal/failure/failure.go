// Package failure содержит типизированную классификацию ошибок ядра.
package failure

import (
	"errors"
	"fmt"
)

// Kind описывает класс отказа. Повторять запрос с теми же данными имеет
// смысл только для KindNetwork; KindBusinessRule — окончательный отказ.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindBusinessRule Kind = "business_rule"
	KindNotFound     Kind = "not_found"
	KindNetwork      Kind = "network"
	KindServer       Kind = "server"
)

// Failure — ошибка ядра с классом отказа и сообщением для вызывающей стороны.
type Failure struct {
	Kind Kind
	Msg  string
	Err  error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.Msg, f.Err)
	}
	return f.Msg
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Is позволяет сравнивать ошибки по классу через errors.Is.
func (f *Failure) Is(target error) bool {
	var t *Failure
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == f.Kind && (t.Msg == "" || t.Msg == f.Msg)
}

// Validation создаёт отказ из-за некорректных входных данных или неподходящей роли.
func Validation(format string, args ...any) *Failure {
	return &Failure{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// BusinessRule создаёт отказ из-за нарушения доменного инварианта.
func BusinessRule(format string, args ...any) *Failure {
	return &Failure{Kind: KindBusinessRule, Msg: fmt.Sprintf(format, args...)}
}

// NotFound создаёт отказ «сущность не найдена».
func NotFound(format string, args ...any) *Failure {
	return &Failure{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Network оборачивает транспортную ошибку; только такие отказы можно ретраить.
func Network(msg string, err error) *Failure {
	return &Failure{Kind: KindNetwork, Msg: msg, Err: err}
}

// Server оборачивает внутреннюю ошибку хранилища или бэкенда.
func Server(msg string, err error) *Failure {
	return &Failure{Kind: KindServer, Msg: msg, Err: err}
}

// KindOf возвращает класс ошибки; для нетипизированных ошибок — KindServer.
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindServer
}

// IsKind сообщает, относится ли ошибка к указанному классу.
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}
