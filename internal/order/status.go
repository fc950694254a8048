package order

// Fulfillment statuses. An order starts Pendente; staff may set any status
// at any time (the console is the only guard), customers may only cancel
// their own order while it is still Pendente.
const (
	StatusPendente  = "Pendente"
	StatusPronto    = "Pronto"
	StatusEntregue  = "Entregue"
	StatusCancelado = "Cancelado"
)

func ValidStatus(s string) bool {
	switch s {
	case StatusPendente, StatusPronto, StatusEntregue, StatusCancelado:
		return true
	}
	return false
}
