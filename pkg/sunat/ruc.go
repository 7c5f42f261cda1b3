package sunat

import (
	"fmt"
	"unicode"
)

// pesos para el cálculo del dígito verificador del RUC (módulo 11, SUNAT).
// Se aplican a los 10 primeros dígitos del RUC, de izquierda a derecha.
var rucWeights = [10]int{5, 4, 3, 2, 7, 6, 5, 4, 3, 2}

// ValidarRUC valida que el RUC tenga 11 dígitos, un prefijo de tipo de
// contribuyente conocido (10, 15, 17 o 20) y un dígito verificador correcto
// según el algoritmo módulo 11 de SUNAT.
func ValidarRUC(ruc string) error {
	digits := soloDigitos(ruc)
	if len(digits) != 11 {
		return fmt.Errorf("sunat: RUC debe tener 11 dígitos, se encontraron %d", len(digits))
	}
	prefix := string(digits[:2])
	switch prefix {
	case "10", "15", "17", "20":
	default:
		return fmt.Errorf("sunat: prefijo de RUC inválido: %s", prefix)
	}
	var sum int
	for i := 0; i < 10; i++ {
		sum += int(digits[i]-'0') * rucWeights[i]
	}
	remainder := 11 - sum%11
	expected := byte('0' + remainder%10)
	if digits[10] != expected {
		return fmt.Errorf("sunat: dígito verificador del RUC inválido: esperado %c, recibido %c", expected, digits[10])
	}
	return nil
}

func soloDigitos(s string) []byte {
	var out []byte
	for _, r := range s {
		if unicode.IsDigit(r) {
			out = append(out, byte(r))
		}
	}
	return out
}
