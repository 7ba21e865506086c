package httperr

import "errors"

// BusinessError é um resultado de regra de negócio, nunca uma falha de infra.
// Meta carrega o contexto que o cliente precisa para agir (ex.: horário sugerido).
type BusinessError struct {
	Code string
	Meta map[string]any
}

func (e BusinessError) Error() string {
	return e.Code
}

func ErrBusiness(code string) error {
	return BusinessError{Code: code}
}

func ErrBusinessMeta(code string, meta map[string]any) error {
	return BusinessError{Code: code, Meta: meta}
}

func IsBusiness(err error, code string) bool {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}

// AsBusiness extracts the business error carried by err, if any.
func AsBusiness(err error) (BusinessError, bool) {
	var be BusinessError
	ok := errors.As(err, &be)
	return be, ok
}

// ErrNotFound is returned by repositories when a row does not exist.
var ErrNotFound = ErrBusiness(CodeNotFound)

func IsNotFound(err error) bool {
	return IsBusiness(err, CodeNotFound)
}
