package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound              = errors.New("recurso no encontrado")
	ErrInvalidInput          = errors.New("entrada inválida")
	ErrConflict              = errors.New("conflicto con el estado actual")
	ErrInsufficientStock     = errors.New("stock insuficiente en lotes elegibles")
	ErrInsufficientAvailable = errors.New("stock disponible insuficiente")
	ErrInvalidTransition     = errors.New("transición de estado no permitida")
	ErrAlreadyApplied        = errors.New("el ajuste ya fue aplicado")
)
