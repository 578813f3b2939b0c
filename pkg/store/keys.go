package store

import "fmt"

func sequenceKey(anio, semana int) string {
	return fmt.Sprintf("%d:%02d", anio, semana)
}

func sequenceExecID(n int) string {
	return fmt.Sprintf("EXEC-%06d", n)
}
