package domain

import "fmt"

// APIError é devolvido quando o corpo da resposta traz um objeto "error".
//
// Code é o httpStatusCode informado pelo provedor (como texto, pode vir vazio).
// Payload guarda o corpo bruto da resposta.
type APIError struct {
	Code    string
	Message string
	Payload []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}
