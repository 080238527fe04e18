package entity

import "fmt"

// Tipos de nivel de inventario. Un nivel es un punto donde se rastrea stock:
// bodega central, operador de campo o máquina expendedora.
const (
	LevelWarehouse = "warehouse"
	LevelOperator  = "operator"
	LevelMachine   = "machine"
)

// Level identifica una instancia de nivel: (tipo, referencia externa).
// RefID apunta al agregado bodega/operador/máquina que vive fuera de este módulo.
type Level struct {
	Type  string
	RefID string
}

// Key devuelve la clave canónica "tipo:ref". Se usa como clave de posición
// y como orden global de adquisición de bloqueos en traslados.
func (l Level) Key() string {
	return fmt.Sprintf("%s:%s", l.Type, l.RefID)
}

// Valid verifica que el tipo sea conocido y la referencia no esté vacía.
func (l Level) Valid() bool {
	switch l.Type {
	case LevelWarehouse, LevelOperator, LevelMachine:
		return l.RefID != ""
	}
	return false
}
